package portfolio

import "github.com/avgerinos/coinfolio/internal/modules/ledger"

// Price provenance for an enriched holding.
const (
	PricedFresh    = "fresh"
	PricedStale    = "stale"
	PricedFallback = "unpriced"
)

// EnrichedHolding is a ledger holding joined with the latest known market
// price. All monetary fields are float64: this is derived display data, the
// exact decimal ledger remains the source of truth.
type EnrichedHolding struct {
	ID               string        `json:"id"`
	CoinID           string        `json:"coin_id"`
	Symbol           string        `json:"symbol"`
	Name             string        `json:"name"`
	Bucket           ledger.Bucket `json:"bucket"`
	Quantity         float64       `json:"quantity"`
	AvgBuyPrice      float64       `json:"avg_buy_price"`
	CostBasis        float64       `json:"cost_basis"`
	CurrentPrice     float64       `json:"current_price"`
	CurrentValue     float64       `json:"current_value"`
	UnrealizedPnl    float64       `json:"unrealized_pnl"`
	UnrealizedPnlPct float64       `json:"unrealized_pnl_pct"`
	PortfolioPct     float64       `json:"portfolio_pct"`
	PriceStatus      string        `json:"price_status"`
}

// BucketAllocation is the value and weight of one bucket
type BucketAllocation struct {
	Value float64 `json:"value"`
	Pct   float64 `json:"pct"`
}

// Allocation is the long-term vs short-term split, measured against the
// fixed 50/50 target
type Allocation struct {
	TotalValue float64          `json:"total_value"`
	LongTerm   BucketAllocation `json:"long_term"`
	ShortTerm  BucketAllocation `json:"short_term"`
	Deviation  float64          `json:"deviation"`
}

// Stats are the headline portfolio numbers
type Stats struct {
	TotalValue         float64 `json:"total_value"`
	TotalCostBasis     float64 `json:"total_cost_basis"`
	TotalUnrealizedPnl float64 `json:"total_unrealized_pnl"`
	UnrealizedPnlPct   float64 `json:"unrealized_pnl_pct"`
	NetROI             float64 `json:"net_roi"`
}

// Summary is the full valuation view for one owner
type Summary struct {
	Holdings     []EnrichedHolding `json:"holdings"`
	Allocation   Allocation        `json:"allocation"`
	Stats        Stats             `json:"stats"`
	MonthlyCosts float64           `json:"monthly_costs"`
	RealizedPnl  float64           `json:"realized_pnl"`
}
