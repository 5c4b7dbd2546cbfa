package market

import "time"

// TTL constants for cached market data.
const (
	// DefaultPriceTTL - maximum age a cached price is trusted before a
	// refetch is attempted
	DefaultPriceTTL = 60 * time.Second

	// CacheRetention - rows not refreshed for this long are pruned by the
	// cleanup job (coins that left every portfolio)
	CacheRetention = 30 * 24 * time.Hour
)
