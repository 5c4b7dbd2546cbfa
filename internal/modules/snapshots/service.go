// Package snapshots captures a daily record of each portfolio's value and
// derives history statistics from the series.
package snapshots

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"

	"github.com/avgerinos/coinfolio/internal/modules/portfolio"
)

// SummarySource computes the valuation view a snapshot is taken from
type SummarySource interface {
	Summary(ctx context.Context, userID string) (portfolio.Summary, error)
}

// Service captures and serves portfolio snapshots
type Service struct {
	repo      *Repository
	valuation SummarySource
	log       zerolog.Logger
}

// NewService creates a new snapshots service
func NewService(repo *Repository, valuation SummarySource, log zerolog.Logger) *Service {
	return &Service{
		repo:      repo,
		valuation: valuation,
		log:       log.With().Str("service", "snapshots").Logger(),
	}
}

// Capture records today's snapshot for one owner. Rerunning on the same day
// overwrites the earlier capture rather than duplicating it.
func (s *Service) Capture(ctx context.Context, userID string, now time.Time) (Snapshot, error) {
	summary, err := s.valuation.Summary(ctx, userID)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to value portfolio for %s: %w", userID, err)
	}

	snap := Snapshot{
		ID:                 uuid.New().String(),
		UserID:             userID,
		SnapshotDate:       now.UTC().Format("2006-01-02"),
		TotalValue:         summary.Stats.TotalValue,
		TotalCostBasis:     summary.Stats.TotalCostBasis,
		TotalUnrealizedPnl: summary.Stats.TotalUnrealizedPnl,
		TotalRealizedPnl:   summary.RealizedPnl,
		LongTermValue:      summary.Allocation.LongTerm.Value,
		ShortTermValue:     summary.Allocation.ShortTerm.Value,
		TotalCosts:         summary.MonthlyCosts,
		CreatedAt:          now.UTC(),
	}

	if err := s.repo.Upsert(ctx, snap); err != nil {
		return Snapshot{}, err
	}

	return snap, nil
}

// CaptureAll snapshots every owner with active holdings. One failing owner
// does not stop the rest.
func (s *Service) CaptureAll(ctx context.Context, now time.Time) error {
	users, err := s.repo.ActiveUserIDs(ctx)
	if err != nil {
		return err
	}

	var failed int
	for _, userID := range users {
		if _, err := s.Capture(ctx, userID, now); err != nil {
			failed++
			s.log.Error().Err(err).Str("user", userID).Msg("Failed to capture snapshot")
		}
	}

	s.log.Info().Int("users", len(users)).Int("failed", failed).Msg("Snapshot run complete")
	if failed > 0 {
		return fmt.Errorf("snapshot capture failed for %d of %d users", failed, len(users))
	}
	return nil
}

// History returns the owner's snapshots, oldest first
func (s *Service) History(ctx context.Context, userID string, days int) ([]Snapshot, error) {
	return s.repo.ListByUser(ctx, userID, days)
}

// Stats summarizes the owner's snapshot series. Returns zero stats for an
// empty series.
func (s *Service) Stats(ctx context.Context, userID string, days int) (HistoryStats, error) {
	history, err := s.repo.ListByUser(ctx, userID, days)
	if err != nil {
		return HistoryStats{}, err
	}

	return CalcHistoryStats(history), nil
}

// CalcHistoryStats computes series statistics over snapshots ordered oldest
// first. Daily volatility is the standard deviation of day-over-day returns
// in percent.
func CalcHistoryStats(history []Snapshot) HistoryStats {
	if len(history) == 0 {
		return HistoryStats{}
	}

	values := make([]float64, len(history))
	for i, snap := range history {
		values[i] = snap.TotalValue
	}

	stats := HistoryStats{
		Days:       len(values),
		MeanValue:  stat.Mean(values, nil),
		MinValue:   values[0],
		MaxValue:   values[0],
		FirstValue: values[0],
		LastValue:  values[len(values)-1],
	}
	if len(values) > 1 {
		stats.StdDevValue = stat.StdDev(values, nil)
	}
	for _, v := range values {
		if v < stats.MinValue {
			stats.MinValue = v
		}
		if v > stats.MaxValue {
			stats.MaxValue = v
		}
	}
	if stats.FirstValue > 0 {
		stats.ChangePct = (stats.LastValue/stats.FirstValue - 1) * 100
	}

	var returns []float64
	for i := 1; i < len(values); i++ {
		if values[i-1] > 0 {
			returns = append(returns, (values[i]/values[i-1]-1)*100)
		}
	}
	if len(returns) > 1 {
		stats.DailyVolPct = stat.StdDev(returns, nil)
	}

	return stats
}
