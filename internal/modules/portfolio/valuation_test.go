package portfolio

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avgerinos/coinfolio/internal/modules/ledger"
	"github.com/avgerinos/coinfolio/internal/modules/market"
)

func holding(coinID string, bucket ledger.Bucket, qty, avg, cost float64) ledger.Holding {
	return ledger.Holding{
		ID:          "h-" + coinID + "-" + string(bucket),
		CoinID:      coinID,
		Symbol:      coinID[:3],
		Bucket:      bucket,
		Quantity:    decimal.NewFromFloat(qty),
		AvgBuyPrice: decimal.NewFromFloat(avg),
		CostBasis:   decimal.NewFromFloat(cost),
		IsActive:    true,
	}
}

func price(coinID string, usd float64) market.CoinPrice {
	return market.CoinPrice{CoinID: coinID, PriceUSD: usd, Freshness: market.Fresh}
}

func TestEnrichHoldingsBasics(t *testing.T) {
	holdings := []ledger.Holding{
		holding("bitcoin", ledger.BucketLongTerm, 1, 60000, 60000),
		holding("ethereum", ledger.BucketShortTerm, 10, 2000, 20000),
	}
	prices := map[string]market.CoinPrice{
		"bitcoin":  price("bitcoin", 70000),
		"ethereum": price("ethereum", 2500),
	}

	enriched := EnrichHoldings(holdings, prices)
	require.Len(t, enriched, 2)

	btc := enriched[0]
	assert.Equal(t, 70000.0, btc.CurrentPrice)
	assert.Equal(t, 70000.0, btc.CurrentValue)
	assert.Equal(t, 10000.0, btc.UnrealizedPnl)
	assert.InDelta(t, 16.6667, btc.UnrealizedPnlPct, 0.001)
	assert.Equal(t, PricedFresh, btc.PriceStatus)

	eth := enriched[1]
	assert.Equal(t, 25000.0, eth.CurrentValue)
	assert.Equal(t, 5000.0, eth.UnrealizedPnl)
	assert.InDelta(t, 25.0, eth.UnrealizedPnlPct, 0.001)

	// 70000 + 25000 = 95000 total
	assert.InDelta(t, 73.6842, btc.PortfolioPct, 0.001)
	assert.InDelta(t, 26.3158, eth.PortfolioPct, 0.001)
}

func TestEnrichHoldingsUnpricedFallsBackToAvgCost(t *testing.T) {
	holdings := []ledger.Holding{
		holding("obscurecoin", ledger.BucketShortTerm, 100, 2.5, 250),
	}

	enriched := EnrichHoldings(holdings, map[string]market.CoinPrice{})
	require.Len(t, enriched, 1)
	assert.Equal(t, 2.5, enriched[0].CurrentPrice, "unpriced assets are valued at cost")
	assert.Equal(t, 250.0, enriched[0].CurrentValue)
	assert.Equal(t, 0.0, enriched[0].UnrealizedPnl, "fallback pricing shows zero P&L")
	assert.Equal(t, PricedFallback, enriched[0].PriceStatus)
}

func TestEnrichHoldingsStalePriceFlagged(t *testing.T) {
	holdings := []ledger.Holding{
		holding("bitcoin", ledger.BucketLongTerm, 1, 60000, 60000),
	}
	prices := map[string]market.CoinPrice{
		"bitcoin": {CoinID: "bitcoin", PriceUSD: 58000, Freshness: market.Stale},
	}

	enriched := EnrichHoldings(holdings, prices)
	require.Len(t, enriched, 1)
	assert.Equal(t, 58000.0, enriched[0].CurrentPrice)
	assert.Equal(t, PricedStale, enriched[0].PriceStatus)
}

func TestEnrichHoldingsWeightsSumTo100(t *testing.T) {
	holdings := []ledger.Holding{
		holding("bitcoin", ledger.BucketLongTerm, 0.7, 60000, 42000),
		holding("ethereum", ledger.BucketLongTerm, 13, 2100, 27300),
		holding("solana", ledger.BucketShortTerm, 250, 140, 35000),
	}
	prices := map[string]market.CoinPrice{
		"bitcoin":  price("bitcoin", 64123.45),
		"ethereum": price("ethereum", 2377.12),
		"solana":   price("solana", 151.03),
	}

	enriched := EnrichHoldings(holdings, prices)
	var sum float64
	for _, h := range enriched {
		sum += h.PortfolioPct
	}
	assert.InDelta(t, 100.0, sum, 1e-9)
}

func TestEnrichHoldingsZeroValuePortfolio(t *testing.T) {
	holdings := []ledger.Holding{
		holding("bitcoin", ledger.BucketLongTerm, 0, 60000, 0),
	}
	prices := map[string]market.CoinPrice{"bitcoin": price("bitcoin", 60000)}

	enriched := EnrichHoldings(holdings, prices)
	require.Len(t, enriched, 1)
	assert.Equal(t, 0.0, enriched[0].PortfolioPct, "zero total value yields zero weights")
	assert.Equal(t, 0.0, enriched[0].UnrealizedPnlPct, "zero cost basis yields zero pnl pct")
}

func TestCalcAllocationDeviationSymmetry(t *testing.T) {
	seventyThirty := []EnrichedHolding{
		{Bucket: ledger.BucketLongTerm, CurrentValue: 7000},
		{Bucket: ledger.BucketShortTerm, CurrentValue: 3000},
	}
	thirtySeventy := []EnrichedHolding{
		{Bucket: ledger.BucketLongTerm, CurrentValue: 3000},
		{Bucket: ledger.BucketShortTerm, CurrentValue: 7000},
	}

	a := CalcAllocation(seventyThirty)
	b := CalcAllocation(thirtySeventy)

	assert.InDelta(t, 20.0, a.Deviation, 1e-9)
	assert.InDelta(t, 20.0, b.Deviation, 1e-9)
	assert.InDelta(t, 70.0, a.LongTerm.Pct, 1e-9)
	assert.InDelta(t, 30.0, a.ShortTerm.Pct, 1e-9)
	assert.Equal(t, 10000.0, a.TotalValue)
}

func TestCalcAllocationEmpty(t *testing.T) {
	alloc := CalcAllocation(nil)
	assert.Equal(t, 0.0, alloc.TotalValue)
	assert.Equal(t, 0.0, alloc.Deviation, "a portfolio with no value has no drift")
}

func TestCalcAllocationZeroValueHoldings(t *testing.T) {
	enriched := []EnrichedHolding{
		{Bucket: ledger.BucketLongTerm, CurrentValue: 0},
		{Bucket: ledger.BucketShortTerm, CurrentValue: 0},
	}
	alloc := CalcAllocation(enriched)
	assert.Equal(t, 0.0, alloc.TotalValue)
	assert.Equal(t, 0.0, alloc.Deviation)
}

func TestCalcPortfolioStats(t *testing.T) {
	enriched := []EnrichedHolding{
		{CurrentValue: 70000, CostBasis: 60000},
		{CurrentValue: 25000, CostBasis: 20000},
	}

	stats := CalcPortfolioStats(enriched, 150)
	assert.Equal(t, 95000.0, stats.TotalValue)
	assert.Equal(t, 80000.0, stats.TotalCostBasis)
	assert.Equal(t, 15000.0, stats.TotalUnrealizedPnl)
	assert.InDelta(t, 18.75, stats.UnrealizedPnlPct, 1e-9)
	// (95000 - 80000 - 150) / 80000 * 100
	assert.InDelta(t, 18.5625, stats.NetROI, 1e-9)
}

func TestCalcPortfolioStatsZeroCostBasis(t *testing.T) {
	stats := CalcPortfolioStats(nil, 100)
	assert.Equal(t, 0.0, stats.NetROI)
	assert.Equal(t, 0.0, stats.UnrealizedPnlPct)
}

func TestCoinIDsDedupesAcrossBuckets(t *testing.T) {
	holdings := []ledger.Holding{
		holding("bitcoin", ledger.BucketLongTerm, 1, 1, 1),
		holding("bitcoin", ledger.BucketShortTerm, 1, 1, 1),
		holding("ethereum", ledger.BucketLongTerm, 1, 1, 1),
	}
	assert.Equal(t, []string{"bitcoin", "ethereum"}, CoinIDs(holdings))
}
