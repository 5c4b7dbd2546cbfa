// Package risk derives portfolio risk metrics from the valuation output.
// Everything here is stateless and recomputed on every request; nothing is
// persisted. All crypto assets are treated as one correlated class, so the
// correlation check is a position-count heuristic, not a covariance model.
package risk

import (
	"math"
	"sort"

	"github.com/avgerinos/coinfolio/internal/modules/portfolio"
)

// Risk level buckets for the overall score.
const (
	LevelLow    = "low"
	LevelMedium = "medium"
	LevelHigh   = "high"
)

// Warning thresholds.
const (
	concentrationWarnPct = 30.0
	correlationSlicePct  = 5.0
	correlationMinCoins  = 3
)

// Factors are the three weighted risk components, each 0-100
type Factors struct {
	Concentration   float64 `json:"concentration"`
	Balance         float64 `json:"balance"`
	Diversification float64 `json:"diversification"`
}

// Warning flags a specific portfolio condition
type Warning struct {
	Type    string  `json:"type"`
	CoinID  string  `json:"coin_id,omitempty"`
	Symbol  string  `json:"symbol,omitempty"`
	Pct     float64 `json:"pct,omitempty"`
	Message string  `json:"message"`
}

// Assessment is the full risk view for one portfolio
type Assessment struct {
	Score    int       `json:"score"`
	Level    string    `json:"level"`
	Factors  Factors   `json:"factors"`
	Warnings []Warning `json:"warnings"`
}

// Score computes the risk assessment from enriched holdings and the bucket
// allocation.
//
// Concentration scales the largest per-coin exposure (a coin held in both
// buckets counts once, weights summed), balance scales drift from the 50/50
// bucket target, diversification decays with the distinct coin count.
// The overall score weighs them 40/30/30 and buckets into
// low (<=33), medium (<=66), high (>66).
func Score(enriched []portfolio.EnrichedHolding, alloc portfolio.Allocation) Assessment {
	coins := coinExposure(enriched)

	factors := Factors{
		Concentration:   math.Min(100, largestExposurePct(coins)*1.5),
		Balance:         math.Min(100, alloc.Deviation*2),
		Diversification: math.Max(0, 100-float64(len(coins))*15),
	}

	score := int(math.Round(factors.Concentration*0.4 + factors.Balance*0.3 + factors.Diversification*0.3))

	level := LevelHigh
	switch {
	case score <= 33:
		level = LevelLow
	case score <= 66:
		level = LevelMedium
	}

	return Assessment{
		Score:    score,
		Level:    level,
		Factors:  factors,
		Warnings: warnings(coins),
	}
}

// exposure is one coin's total portfolio weight, summed across buckets
type exposure struct {
	coinID string
	symbol string
	pct    float64
}

// coinExposure collapses enriched holding rows into per-coin weights,
// ordered by coin id. Both the factors and the warnings read from this view
// so they cannot disagree about what "a position" is.
func coinExposure(enriched []portfolio.EnrichedHolding) []exposure {
	byCoin := make(map[string]*exposure)
	for _, h := range enriched {
		e, ok := byCoin[h.CoinID]
		if !ok {
			e = &exposure{coinID: h.CoinID, symbol: h.Symbol}
			byCoin[h.CoinID] = e
		}
		e.pct += h.PortfolioPct
	}

	out := make([]exposure, 0, len(byCoin))
	for _, e := range byCoin {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].coinID < out[j].coinID })
	return out
}

func largestExposurePct(coins []exposure) float64 {
	var largest float64
	for _, e := range coins {
		if e.pct > largest {
			largest = e.pct
		}
	}
	return largest
}

// warnings flags individual coins above 30% of portfolio value and adds a
// blanket correlation warning when three or more coins each hold a
// meaningful slice.
func warnings(coins []exposure) []Warning {
	warns := []Warning{}
	meaningful := 0
	for _, e := range coins {
		if e.pct > correlationSlicePct {
			meaningful++
		}
		if e.pct > concentrationWarnPct {
			warns = append(warns, Warning{
				Type:    "concentration",
				CoinID:  e.coinID,
				Symbol:  e.symbol,
				Pct:     e.pct,
				Message: e.symbol + " exceeds 30% of portfolio value",
			})
		}
	}

	if meaningful >= correlationMinCoins {
		warns = append(warns, Warning{
			Type:    "correlation",
			Message: "Multiple large crypto positions move together; treat them as one correlated class",
		})
	}

	return warns
}
