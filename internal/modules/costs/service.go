// Package costs tracks operating expenses and normalizes them into a
// monthly burn rate for the valuation engine.
package costs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// ErrInvalidInput is returned when a cost item fails validation
var ErrInvalidInput = errors.New("invalid cost item")

var twelve = decimal.NewFromInt(12)

// AddRequest carries the fields of a new cost item
type AddRequest struct {
	Name        string
	Description string
	Amount      decimal.Decimal
	Currency    string
	Frequency   Frequency
	Category    string
	StartDate   time.Time
}

// Service manages cost items and the monthly burn aggregate
type Service struct {
	repo *Repository
	log  zerolog.Logger
}

// NewService creates a new costs service
func NewService(repo *Repository, log zerolog.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log.With().Str("service", "costs").Logger(),
	}
}

// Add validates and stores a new cost item for the owner
func (s *Service) Add(ctx context.Context, userID string, req AddRequest) (Item, error) {
	if userID == "" {
		return Item{}, fmt.Errorf("%w: missing owner", ErrInvalidInput)
	}
	if req.Name == "" {
		return Item{}, fmt.Errorf("%w: missing name", ErrInvalidInput)
	}
	if !req.Frequency.Valid() {
		return Item{}, fmt.Errorf("%w: unknown frequency %q", ErrInvalidInput, req.Frequency)
	}
	if !req.Amount.IsPositive() {
		return Item{}, fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}

	now := time.Now().UTC()
	startDate := req.StartDate
	if startDate.IsZero() {
		startDate = now
	}
	currency := req.Currency
	if currency == "" {
		currency = "USD"
	}

	item := Item{
		ID:          uuid.New().String(),
		UserID:      userID,
		Name:        req.Name,
		Description: req.Description,
		Amount:      req.Amount,
		Currency:    currency,
		Frequency:   req.Frequency,
		Category:    req.Category,
		StartDate:   startDate,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Insert(ctx, item); err != nil {
		return Item{}, err
	}

	s.log.Info().Str("user", userID).Str("name", item.Name).
		Str("frequency", string(item.Frequency)).Msg("Cost item added")
	return item, nil
}

// Items returns the owner's cost items
func (s *Service) Items(ctx context.Context, userID string, activeOnly bool) ([]Item, error) {
	return s.repo.ListByUser(ctx, userID, activeOnly)
}

// End deactivates a cost item as of now
func (s *Service) End(ctx context.Context, userID, itemID string) error {
	return s.repo.End(ctx, userID, itemID, time.Now().UTC())
}

// TotalMonthlyCosts returns the owner's recurring monthly burn: active
// monthly items at face value plus active annual items at one twelfth.
// One-time items are sunk costs and contribute nothing.
func (s *Service) TotalMonthlyCosts(ctx context.Context, userID string) (float64, error) {
	items, err := s.repo.ListByUser(ctx, userID, true)
	if err != nil {
		return 0, err
	}

	total := decimal.Zero
	for _, item := range items {
		switch item.Frequency {
		case FrequencyMonthly:
			total = total.Add(item.Amount)
		case FrequencyAnnual:
			total = total.Add(item.Amount.Div(twelve))
		}
	}

	return total.InexactFloat64(), nil
}
