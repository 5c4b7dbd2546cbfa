// Package opportunities tracks coins the analyst flagged and the owner's
// watch or pass decision on each.
package opportunities

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrInvalidInput is returned when an opportunity fails validation
var ErrInvalidInput = errors.New("invalid opportunity")

// Service manages opportunities
type Service struct {
	repo *Repository
	log  zerolog.Logger
}

// NewService creates a new opportunities service
func NewService(repo *Repository, log zerolog.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log.With().Str("service", "opportunities").Logger(),
	}
}

// Submit stores a new opportunity in the new state
func (s *Service) Submit(ctx context.Context, o Opportunity) (Opportunity, error) {
	if o.UserID == "" || o.CoinID == "" {
		return Opportunity{}, fmt.Errorf("%w: missing owner or coin", ErrInvalidInput)
	}

	now := time.Now().UTC()
	o.ID = uuid.New().String()
	o.Status = StatusNew
	o.CreatedAt = now
	o.UpdatedAt = now

	if err := s.repo.Insert(ctx, o); err != nil {
		return Opportunity{}, err
	}

	s.log.Info().Str("user", o.UserID).Str("coin", o.CoinID).Msg("Opportunity submitted")
	return o, nil
}

// List returns the owner's opportunities, optionally filtered by status
func (s *Service) List(ctx context.Context, userID, status string) ([]Opportunity, error) {
	return s.repo.ListByUser(ctx, userID, status)
}

// Watch moves an opportunity onto the watch list
func (s *Service) Watch(ctx context.Context, userID, opportunityID string) error {
	return s.repo.SetStatus(ctx, userID, opportunityID, StatusWatching)
}

// Pass dismisses an opportunity
func (s *Service) Pass(ctx context.Context, userID, opportunityID string) error {
	return s.repo.SetStatus(ctx, userID, opportunityID, StatusPassed)
}
