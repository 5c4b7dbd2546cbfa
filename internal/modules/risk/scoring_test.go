package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avgerinos/coinfolio/internal/modules/ledger"
	"github.com/avgerinos/coinfolio/internal/modules/portfolio"
)

func pos(coinID, symbol string, bucket ledger.Bucket, pct float64) portfolio.EnrichedHolding {
	return portfolio.EnrichedHolding{
		CoinID:       coinID,
		Symbol:       symbol,
		Bucket:       bucket,
		PortfolioPct: pct,
	}
}

func TestScoreFactors(t *testing.T) {
	enriched := []portfolio.EnrichedHolding{
		pos("bitcoin", "BTC", ledger.BucketLongTerm, 40),
		pos("ethereum", "ETH", ledger.BucketShortTerm, 35),
		pos("solana", "SOL", ledger.BucketShortTerm, 25),
	}
	alloc := portfolio.Allocation{Deviation: 10}

	a := Score(enriched, alloc)

	// largest 40 * 1.5 = 60; deviation 10 * 2 = 20; 100 - 3*15 = 55
	assert.InDelta(t, 60.0, a.Factors.Concentration, 1e-9)
	assert.InDelta(t, 20.0, a.Factors.Balance, 1e-9)
	assert.InDelta(t, 55.0, a.Factors.Diversification, 1e-9)
	// round(60*0.4 + 20*0.3 + 55*0.3) = round(46.5) = 47
	assert.Equal(t, 47, a.Score)
	assert.Equal(t, LevelMedium, a.Level)
}

func TestScoreFactorsAreCapped(t *testing.T) {
	enriched := []portfolio.EnrichedHolding{
		pos("bitcoin", "BTC", ledger.BucketLongTerm, 100),
	}
	alloc := portfolio.Allocation{Deviation: 50}

	a := Score(enriched, alloc)
	assert.Equal(t, 100.0, a.Factors.Concentration, "concentration caps at 100")
	assert.Equal(t, 100.0, a.Factors.Balance, "balance caps at 100")
	assert.Equal(t, 85.0, a.Factors.Diversification)
	assert.Equal(t, LevelHigh, a.Level)
}

func TestScoreDiversificationFloorsAtZero(t *testing.T) {
	var enriched []portfolio.EnrichedHolding
	for i := 0; i < 8; i++ {
		enriched = append(enriched, pos(string(rune('a'+i)), "X", ledger.BucketLongTerm, 12.5))
	}

	a := Score(enriched, portfolio.Allocation{})
	assert.Equal(t, 0.0, a.Factors.Diversification, "8 positions x 15 floors at zero")
}

func TestScoreLevelBuckets(t *testing.T) {
	tests := []struct {
		name      string
		largest   float64
		deviation float64
		count     int
		level     string
	}{
		{"low at boundary 33", 20, 0, 6, LevelLow},       // 20*1.5=30 -> 12 + 0 + 10*0.3=3 -> 15
		{"medium", 40, 10, 3, LevelMedium},               // 47
		{"high", 90, 50, 1, LevelHigh},                   // 100*0.4 + 100*0.3 + 85*0.3 = 95.5 -> 96
		{"single position is high", 100, 50, 1, LevelHigh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enriched := make([]portfolio.EnrichedHolding, tt.count)
			for i := range enriched {
				enriched[i] = pos(string(rune('a'+i)), "X", ledger.BucketLongTerm, 1)
			}
			enriched[0].PortfolioPct = tt.largest

			a := Score(enriched, portfolio.Allocation{Deviation: tt.deviation})
			assert.Equal(t, tt.level, a.Level)
		})
	}
}

func TestScoreFactorsAggregateCoinAcrossBuckets(t *testing.T) {
	// bitcoin held in both buckets is one 55% exposure, not two positions:
	// concentration reads the combined weight and diversification counts
	// two distinct coins, matching how the warnings see the portfolio.
	enriched := []portfolio.EnrichedHolding{
		pos("bitcoin", "BTC", ledger.BucketLongTerm, 30),
		pos("bitcoin", "BTC", ledger.BucketShortTerm, 25),
		pos("ethereum", "ETH", ledger.BucketLongTerm, 45),
	}

	a := Score(enriched, portfolio.Allocation{})

	// min(100, 55*1.5) = 82.5; 100 - 2*15 = 70
	assert.InDelta(t, 82.5, a.Factors.Concentration, 1e-9)
	assert.InDelta(t, 70.0, a.Factors.Diversification, 1e-9)
}

func TestConcentrationWarningAggregatesBuckets(t *testing.T) {
	// bitcoin is 18% + 17% across buckets: over 30% combined even though
	// neither position alone crosses the line.
	enriched := []portfolio.EnrichedHolding{
		pos("bitcoin", "BTC", ledger.BucketLongTerm, 18),
		pos("bitcoin", "BTC", ledger.BucketShortTerm, 17),
		pos("ethereum", "ETH", ledger.BucketLongTerm, 65),
	}

	a := Score(enriched, portfolio.Allocation{})

	var flagged []string
	for _, w := range a.Warnings {
		if w.Type == "concentration" {
			flagged = append(flagged, w.CoinID)
		}
	}
	assert.ElementsMatch(t, []string{"bitcoin", "ethereum"}, flagged)
}

func TestCorrelationWarningNeedsThreeMeaningfulCoins(t *testing.T) {
	twoCoins := []portfolio.EnrichedHolding{
		pos("bitcoin", "BTC", ledger.BucketLongTerm, 50),
		pos("ethereum", "ETH", ledger.BucketShortTerm, 50),
	}
	a := Score(twoCoins, portfolio.Allocation{})
	for _, w := range a.Warnings {
		require.NotEqual(t, "correlation", w.Type, "two coins must not trigger the correlation warning")
	}

	threeCoins := append(twoCoins[:2:2], pos("solana", "SOL", ledger.BucketShortTerm, 6))
	threeCoins[0].PortfolioPct = 47
	threeCoins[1].PortfolioPct = 47
	a = Score(threeCoins, portfolio.Allocation{})

	found := false
	for _, w := range a.Warnings {
		if w.Type == "correlation" {
			found = true
		}
	}
	assert.True(t, found, "three coins above 5% each must trigger the correlation warning")
}

func TestScoreEmptyPortfolio(t *testing.T) {
	a := Score(nil, portfolio.CalcAllocation(nil))
	assert.Empty(t, a.Warnings)
	assert.Equal(t, 0.0, a.Factors.Concentration)
	assert.Equal(t, 0.0, a.Factors.Balance, "empty portfolio has no bucket drift")
	assert.Equal(t, 100.0, a.Factors.Diversification)
	// 0*0.4 + 0*0.3 + 100*0.3 = 30
	assert.Equal(t, 30, a.Score)
	assert.Equal(t, LevelLow, a.Level)
}
