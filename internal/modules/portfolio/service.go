package portfolio

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/avgerinos/coinfolio/internal/modules/ledger"
	"github.com/avgerinos/coinfolio/internal/modules/market"
)

// HoldingSource supplies the owner's ledger positions
type HoldingSource interface {
	Holdings(ctx context.Context, userID string, activeOnly bool) ([]ledger.Holding, error)
	TotalRealizedPnl(ctx context.Context, userID string) (decimal.Decimal, error)
}

// PriceSource supplies best-effort prices for a batch of coin ids
type PriceSource interface {
	GetPrices(ctx context.Context, coinIDs []string) (map[string]market.CoinPrice, error)
}

// BurnSource supplies the owner's recurring monthly operating costs
type BurnSource interface {
	TotalMonthlyCosts(ctx context.Context, userID string) (float64, error)
}

// Service assembles the valuation view for an owner
type Service struct {
	holdings HoldingSource
	prices   PriceSource
	burn     BurnSource
	log      zerolog.Logger
}

// NewService creates a new portfolio service
func NewService(holdings HoldingSource, prices PriceSource, burn BurnSource, log zerolog.Logger) *Service {
	return &Service{
		holdings: holdings,
		prices:   prices,
		burn:     burn,
		log:      log.With().Str("service", "portfolio").Logger(),
	}
}

// Summary computes the full valuation view for one owner: active holdings
// enriched with prices, the bucket allocation, and headline stats net of
// monthly operating costs.
func (s *Service) Summary(ctx context.Context, userID string) (Summary, error) {
	holdings, err := s.holdings.Holdings(ctx, userID, true)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to load holdings: %w", err)
	}

	prices, err := s.prices.GetPrices(ctx, CoinIDs(holdings))
	if err != nil {
		return Summary{}, fmt.Errorf("failed to resolve prices: %w", err)
	}

	monthlyCosts, err := s.burn.TotalMonthlyCosts(ctx, userID)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to aggregate costs: %w", err)
	}

	realized, err := s.holdings.TotalRealizedPnl(ctx, userID)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to sum realized pnl: %w", err)
	}

	enriched := EnrichHoldings(holdings, prices)
	return Summary{
		Holdings:     enriched,
		Allocation:   CalcAllocation(enriched),
		Stats:        CalcPortfolioStats(enriched, monthlyCosts),
		MonthlyCosts: monthlyCosts,
		RealizedPnl:  realized.InexactFloat64(),
	}, nil
}

// EnrichedHoldings returns the owner's active holdings with prices joined,
// without the aggregate stats. Used by the risk module.
func (s *Service) EnrichedHoldings(ctx context.Context, userID string) ([]EnrichedHolding, error) {
	holdings, err := s.holdings.Holdings(ctx, userID, true)
	if err != nil {
		return nil, fmt.Errorf("failed to load holdings: %w", err)
	}

	prices, err := s.prices.GetPrices(ctx, CoinIDs(holdings))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve prices: %w", err)
	}

	return EnrichHoldings(holdings, prices), nil
}
