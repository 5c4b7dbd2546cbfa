// Package reports stores analyst-written market analysis documents.
package reports

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrInvalidInput is returned when a report fails validation
var ErrInvalidInput = errors.New("invalid report")

// Service manages analysis reports
type Service struct {
	repo *Repository
	log  zerolog.Logger
}

// NewService creates a new reports service
func NewService(repo *Repository, log zerolog.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log.With().Str("service", "reports").Logger(),
	}
}

// Submit stores a new report for the owner. Called from the ingestion
// boundary.
func (s *Service) Submit(ctx context.Context, rep Report) (Report, error) {
	if rep.UserID == "" || rep.Title == "" || rep.Content == "" {
		return Report{}, fmt.Errorf("%w: missing owner, title or content", ErrInvalidInput)
	}
	if rep.ReportType == "" {
		rep.ReportType = "general"
	}

	rep.ID = uuid.New().String()
	rep.CreatedAt = time.Now().UTC()

	if err := s.repo.Insert(ctx, rep); err != nil {
		return Report{}, err
	}

	s.log.Info().Str("user", rep.UserID).Str("type", rep.ReportType).Msg("Report stored")
	return rep, nil
}

// List returns the owner's reports, optionally filtered by type
func (s *Service) List(ctx context.Context, userID, reportType string) ([]Report, error) {
	return s.repo.ListByUser(ctx, userID, reportType)
}
