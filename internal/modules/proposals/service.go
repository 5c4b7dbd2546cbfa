// Package proposals stores analyst trade recommendations and the owner's
// decisions on them.
package proposals

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrInvalidInput is returned when a proposal fails validation
var ErrInvalidInput = errors.New("invalid proposal")

// Service manages trade proposals
type Service struct {
	repo *Repository
	log  zerolog.Logger
}

// NewService creates a new proposals service
func NewService(repo *Repository, log zerolog.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log.With().Str("service", "proposals").Logger(),
	}
}

// Submit stores a new pending proposal for the owner. Called from the
// ingestion boundary, never from user-facing handlers.
func (s *Service) Submit(ctx context.Context, p Proposal) (Proposal, error) {
	if p.UserID == "" || p.CoinID == "" {
		return Proposal{}, fmt.Errorf("%w: missing owner or coin", ErrInvalidInput)
	}
	if p.Action != "BUY" && p.Action != "SELL" {
		return Proposal{}, fmt.Errorf("%w: unknown action %q", ErrInvalidInput, p.Action)
	}

	p.ID = uuid.New().String()
	p.Status = StatusPending
	p.FounderDecision = ""
	p.DecidedAt = nil
	p.CreatedAt = time.Now().UTC()
	if p.Risks == nil {
		p.Risks = []string{}
	}

	if err := s.repo.Insert(ctx, p); err != nil {
		return Proposal{}, err
	}

	s.log.Info().Str("user", p.UserID).Str("coin", p.CoinID).
		Str("action", p.Action).Float64("confluence", p.ConfluenceScore).
		Msg("Proposal submitted")
	return p, nil
}

// List returns the owner's proposals, optionally filtered by status
func (s *Service) List(ctx context.Context, userID, status string) ([]Proposal, error) {
	return s.repo.ListByUser(ctx, userID, status)
}

// Approve marks a pending proposal approved with an optional decision note
func (s *Service) Approve(ctx context.Context, userID, proposalID, note string) error {
	return s.repo.Decide(ctx, userID, proposalID, StatusApproved, note, time.Now().UTC())
}

// Reject marks a pending proposal rejected with an optional decision note
func (s *Service) Reject(ctx context.Context, userID, proposalID, note string) error {
	return s.repo.Decide(ctx, userID, proposalID, StatusRejected, note, time.Now().UTC())
}
