package market

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/avgerinos/coinfolio/internal/clients/coingecko"
)

// PriceProvider is the external quote source consumed by the cache.
// It is treated as unreliable: timeouts and malformed payloads surface as
// errors that the service degrades around.
type PriceProvider interface {
	SimplePrices(ctx context.Context, coinIDs []string) (map[string]coingecko.Quote, error)
}

// Service is the read-through price cache. Lookups prefer persisted rows
// younger than the TTL; anything stale or missing is refetched in one batch
// call and written back. Provider failures degrade to stale rows and are
// never surfaced to callers, so valuation always has a best-effort price.
type Service struct {
	repo     *Repository
	provider PriceProvider
	ttl      time.Duration
	log      zerolog.Logger
}

// NewService creates a new market service
func NewService(repo *Repository, provider PriceProvider, ttl time.Duration, log zerolog.Logger) *Service {
	if ttl <= 0 {
		ttl = DefaultPriceTTL
	}
	return &Service{
		repo:     repo,
		provider: provider,
		ttl:      ttl,
		log:      log.With().Str("service", "market").Logger(),
	}
}

// GetPrices returns the latest known price for each requested coin id.
//
// Entries are tagged Fresh (cache hit within TTL, or just fetched) or Stale
// (provider failed, expired cache row used instead). Ids with no cache row
// and no provider data are absent from the result; callers must handle
// missing prices. An empty input short-circuits without any I/O.
//
// Concurrent callers may each decide to refetch an overlapping id set; the
// refetch is idempotent, so no cross-process lock is taken.
func (s *Service) GetPrices(ctx context.Context, coinIDs []string) (map[string]CoinPrice, error) {
	result := make(map[string]CoinPrice)
	if len(coinIDs) == 0 {
		return result, nil
	}

	// Dedupe while preserving order
	seen := make(map[string]bool, len(coinIDs))
	ids := make([]string, 0, len(coinIDs))
	for _, id := range coinIDs {
		if id != "" && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	cached, err := s.repo.GetMany(ids)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	staleRows := make(map[string]CoinPrice)
	for _, p := range cached {
		if now.Sub(p.LastUpdated) < s.ttl {
			p.Freshness = Fresh
			result[p.CoinID] = p
		} else {
			staleRows[p.CoinID] = p
		}
	}

	var toFetch []string
	for _, id := range ids {
		if _, ok := result[id]; !ok {
			toFetch = append(toFetch, id)
		}
	}
	if len(toFetch) == 0 {
		return result, nil
	}

	quotes, err := s.provider.SimplePrices(ctx, toFetch)
	if err != nil {
		// Degrade to stale cache rows; ids with no row stay absent.
		s.log.Warn().Err(err).Int("coins", len(toFetch)).Msg("Price provider failed, serving stale cache")
		for id, p := range staleRows {
			p.Freshness = Stale
			result[id] = p
		}
		return result, nil
	}

	for _, id := range toFetch {
		quote, ok := quotes[id]
		if !ok {
			// The provider did not know this id; leave it unresolved for
			// this call rather than failing the whole batch.
			continue
		}

		p := CoinPrice{
			CoinID:         id,
			Symbol:         deriveSymbol(id),
			PriceUSD:       quote.USD,
			PriceChange24h: quote.USD24hChange,
			MarketCap:      quote.USDMarketCap,
			Volume24h:      quote.USD24hVol,
			LastUpdated:    now,
			Freshness:      Fresh,
		}
		result[id] = p

		if err := s.repo.Upsert(p); err != nil {
			s.log.Warn().Err(err).Str("coin", id).Msg("Failed to write back cache row")
		}
	}

	return result, nil
}

// CachePrices bulk-upserts provider-shaped rows, used by the analyst
// ingestion endpoint to warm the cache.
func (s *Service) CachePrices(prices []CoinPrice) (int, error) {
	now := time.Now().UTC()
	count := 0
	for _, p := range prices {
		if p.CoinID == "" {
			continue
		}
		if p.Symbol == "" {
			p.Symbol = deriveSymbol(p.CoinID)
		}
		p.LastUpdated = now
		if err := s.repo.Upsert(p); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

// CachedPrices returns every persisted cache row, newest first
func (s *Service) CachedPrices() ([]CoinPrice, error) {
	return s.repo.GetAll()
}

// UpsertIndicator stores a named market indicator
func (s *Service) UpsertIndicator(ind Indicator) error {
	return s.repo.UpsertIndicator(ind)
}

// Indicators returns all analyst-written market indicators
func (s *Service) Indicators() ([]Indicator, error) {
	return s.repo.ListIndicators()
}

// deriveSymbol approximates a ticker from a catalog slug when the provider
// response carries no symbol ("bitcoin" -> "BITCOI").
func deriveSymbol(coinID string) string {
	s := coinID
	if len(s) > 6 {
		s = s[:6]
	}
	return strings.ToUpper(s)
}
