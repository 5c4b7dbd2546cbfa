// Package portfolio computes the valuation view: ledger holdings joined with
// market prices, allocation against the 50/50 bucket target, and headline
// P&L statistics. The transforms here are pure; persistence and price
// fetching live in the ledger and market modules.
package portfolio

import (
	"math"

	"github.com/avgerinos/coinfolio/internal/modules/ledger"
	"github.com/avgerinos/coinfolio/internal/modules/market"
)

// EnrichHoldings joins holdings with the latest prices. A holding with no
// price row is valued at its own average buy price, so it shows zero
// unrealized P&L instead of breaking the whole view.
func EnrichHoldings(holdings []ledger.Holding, prices map[string]market.CoinPrice) []EnrichedHolding {
	enriched := make([]EnrichedHolding, 0, len(holdings))

	var totalValue float64
	for _, h := range holdings {
		quantity := h.Quantity.InexactFloat64()
		avgBuyPrice := h.AvgBuyPrice.InexactFloat64()
		costBasis := h.CostBasis.InexactFloat64()

		currentPrice := avgBuyPrice
		status := PricedFallback
		if p, ok := prices[h.CoinID]; ok {
			currentPrice = p.PriceUSD
			status = PricedFresh
			if p.Freshness == market.Stale {
				status = PricedStale
			}
		}

		currentValue := quantity * currentPrice
		unrealized := currentValue - costBasis
		unrealizedPct := 0.0
		if costBasis > 0 {
			unrealizedPct = (currentValue/costBasis - 1) * 100
		}

		totalValue += currentValue
		enriched = append(enriched, EnrichedHolding{
			ID:               h.ID,
			CoinID:           h.CoinID,
			Symbol:           h.Symbol,
			Name:             h.Name,
			Bucket:           h.Bucket,
			Quantity:         quantity,
			AvgBuyPrice:      avgBuyPrice,
			CostBasis:        costBasis,
			CurrentPrice:     currentPrice,
			CurrentValue:     currentValue,
			UnrealizedPnl:    unrealized,
			UnrealizedPnlPct: unrealizedPct,
			PriceStatus:      status,
		})
	}

	// Weights need the grand total, so they are a second pass.
	for i := range enriched {
		if totalValue > 0 {
			enriched[i].PortfolioPct = enriched[i].CurrentValue / totalValue * 100
		}
	}

	return enriched
}

// CalcAllocation splits the enriched holdings into the two buckets and
// measures drift from the 50/50 target. Deviation is |longTermPct - 50|,
// which makes a 70/30 and a 30/70 split score the same. A portfolio with no
// value has nothing to drift, so its deviation is zero.
func CalcAllocation(enriched []EnrichedHolding) Allocation {
	var alloc Allocation
	for _, h := range enriched {
		alloc.TotalValue += h.CurrentValue
		if h.Bucket == ledger.BucketLongTerm {
			alloc.LongTerm.Value += h.CurrentValue
		} else {
			alloc.ShortTerm.Value += h.CurrentValue
		}
	}

	if alloc.TotalValue > 0 {
		alloc.LongTerm.Pct = alloc.LongTerm.Value / alloc.TotalValue * 100
		alloc.ShortTerm.Pct = alloc.ShortTerm.Value / alloc.TotalValue * 100
		alloc.Deviation = math.Abs(alloc.LongTerm.Pct - 50)
	}

	return alloc
}

// CalcPortfolioStats computes the headline numbers. Monthly operating costs
// are subtracted at face value against lifetime cost basis in netROI; that
// matches how the product has always reported it.
func CalcPortfolioStats(enriched []EnrichedHolding, monthlyCosts float64) Stats {
	var stats Stats
	for _, h := range enriched {
		stats.TotalValue += h.CurrentValue
		stats.TotalCostBasis += h.CostBasis
	}
	stats.TotalUnrealizedPnl = stats.TotalValue - stats.TotalCostBasis

	if stats.TotalCostBasis > 0 {
		stats.UnrealizedPnlPct = (stats.TotalValue/stats.TotalCostBasis - 1) * 100
		stats.NetROI = (stats.TotalValue - stats.TotalCostBasis - monthlyCosts) / stats.TotalCostBasis * 100
	}

	return stats
}

// CoinIDs returns the distinct coin ids across holdings, in first-seen order
func CoinIDs(holdings []ledger.Holding) []string {
	seen := make(map[string]bool, len(holdings))
	var ids []string
	for _, h := range holdings {
		if !seen[h.CoinID] {
			seen[h.CoinID] = true
			ids = append(ids, h.CoinID)
		}
	}
	return ids
}
