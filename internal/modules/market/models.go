// Package market implements the persisted read-through price cache and
// market intelligence queries (indicators, global stats, sentiment).
package market

import "time"

// Freshness describes how a price made it into a result set. An id that is
// neither fresh nor stale is simply absent: the caller must handle missing
// prices (valuation falls back to average cost).
type Freshness string

const (
	// Fresh - served from cache within the TTL window, or just fetched
	Fresh Freshness = "fresh"
	// Stale - the provider failed and an expired cache row was used instead
	Stale Freshness = "stale"
)

// CoinPrice is one coin's cached market data.
// Pointer fields are nil when the provider never reported them.
type CoinPrice struct {
	CoinID         string    `json:"coin_id"`
	Symbol         string    `json:"symbol"`
	PriceUSD       float64   `json:"price_usd"`
	PriceChange24h *float64  `json:"price_change_24h,omitempty"`
	MarketCap      *float64  `json:"market_cap,omitempty"`
	Volume24h      *float64  `json:"volume_24h,omitempty"`
	LastUpdated    time.Time `json:"last_updated"`
	Freshness      Freshness `json:"freshness,omitempty"`
}

// Indicator is a named market indicator written by the external analyst.
type Indicator struct {
	Name       string    `json:"name"`
	Value      string    `json:"value"`
	Label      string    `json:"label,omitempty"`
	Signal     string    `json:"signal,omitempty"`
	Source     string    `json:"source,omitempty"`
	RecordedAt time.Time `json:"recorded_at"`
}
