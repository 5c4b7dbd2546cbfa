package market

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avgerinos/coinfolio/internal/clients/coingecko"
	"github.com/avgerinos/coinfolio/internal/database"
)

var testDBCounter int

func setupTestDBs(t *testing.T) (cacheDB, portfolioDB *sql.DB) {
	t.Helper()
	testDBCounter++

	cache, err := database.New(database.Config{
		Path:    fmt.Sprintf("file:markettestcache%d?mode=memory&cache=shared", testDBCounter),
		Profile: database.ProfileCache,
		Name:    "cache",
	})
	require.NoError(t, err)
	require.NoError(t, cache.Migrate())
	t.Cleanup(func() { cache.Close() })

	portfolio, err := database.New(database.Config{
		Path: fmt.Sprintf("file:markettestpf%d?mode=memory&cache=shared", testDBCounter),
		Name: "portfolio",
	})
	require.NoError(t, err)
	require.NoError(t, portfolio.Migrate())
	t.Cleanup(func() { portfolio.Close() })

	return cache.Conn(), portfolio.Conn()
}

// fakeProvider is a scripted PriceProvider that records what it was asked for.
type fakeProvider struct {
	quotes map[string]coingecko.Quote
	err    error
	calls  int
	lastID []string
}

func (f *fakeProvider) SimplePrices(ctx context.Context, coinIDs []string) (map[string]coingecko.Quote, error) {
	f.calls++
	f.lastID = coinIDs
	if f.err != nil {
		return nil, f.err
	}
	return f.quotes, nil
}

func newTestService(t *testing.T, provider *fakeProvider) (*Service, *Repository) {
	t.Helper()
	cacheDB, portfolioDB := setupTestDBs(t)
	repo := NewRepository(cacheDB, portfolioDB, zerolog.Nop())
	return NewService(repo, provider, DefaultPriceTTL, zerolog.Nop()), repo
}

func fptr(v float64) *float64 { return &v }

func seedCacheRow(t *testing.T, repo *Repository, coinID string, price float64, age time.Duration) {
	t.Helper()
	require.NoError(t, repo.Upsert(CoinPrice{
		CoinID:      coinID,
		Symbol:      deriveSymbol(coinID),
		PriceUSD:    price,
		LastUpdated: time.Now().UTC().Add(-age),
	}))
}

func TestGetPricesEmptyInputShortCircuits(t *testing.T) {
	provider := &fakeProvider{}
	svc, _ := newTestService(t, provider)

	prices, err := svc.GetPrices(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, prices)
	assert.Zero(t, provider.calls, "empty input must not hit the provider")
}

func TestGetPricesFreshCacheHitSkipsProvider(t *testing.T) {
	provider := &fakeProvider{}
	svc, repo := newTestService(t, provider)

	// 59 seconds old: inside the 60s window.
	seedCacheRow(t, repo, "bitcoin", 60000, 59*time.Second)

	prices, err := svc.GetPrices(context.Background(), []string{"bitcoin"})
	require.NoError(t, err)
	require.Contains(t, prices, "bitcoin")
	assert.Equal(t, 60000.0, prices["bitcoin"].PriceUSD)
	assert.Equal(t, Fresh, prices["bitcoin"].Freshness)
	assert.Zero(t, provider.calls, "a fresh row must be served without a provider call")
}

func TestGetPricesStaleRowTriggersRefetch(t *testing.T) {
	provider := &fakeProvider{quotes: map[string]coingecko.Quote{
		"bitcoin": {USD: 61000, USD24hChange: fptr(2.5)},
	}}
	svc, repo := newTestService(t, provider)

	// 61 seconds old: past the 60s window.
	seedCacheRow(t, repo, "bitcoin", 60000, 61*time.Second)

	prices, err := svc.GetPrices(context.Background(), []string{"bitcoin"})
	require.NoError(t, err)
	assert.Equal(t, 1, provider.calls)
	require.Contains(t, prices, "bitcoin")
	assert.Equal(t, 61000.0, prices["bitcoin"].PriceUSD)
	assert.Equal(t, Fresh, prices["bitcoin"].Freshness)
	require.NotNil(t, prices["bitcoin"].PriceChange24h)
	assert.Equal(t, 2.5, *prices["bitcoin"].PriceChange24h)

	// The refreshed quote must be written back to the cache.
	rows, err := repo.GetMany([]string{"bitcoin"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 61000.0, rows[0].PriceUSD)
	assert.WithinDuration(t, time.Now().UTC(), rows[0].LastUpdated, 5*time.Second)
}

func TestGetPricesMissingCoinFetched(t *testing.T) {
	provider := &fakeProvider{quotes: map[string]coingecko.Quote{
		"ethereum": {USD: 2500},
	}}
	svc, _ := newTestService(t, provider)

	prices, err := svc.GetPrices(context.Background(), []string{"ethereum"})
	require.NoError(t, err)
	require.Contains(t, prices, "ethereum")
	assert.Equal(t, 2500.0, prices["ethereum"].PriceUSD)
	assert.Equal(t, "ETHERE", prices["ethereum"].Symbol)
}

func TestGetPricesProviderFailureFallsBackToStale(t *testing.T) {
	provider := &fakeProvider{err: errors.New("connection refused")}
	svc, repo := newTestService(t, provider)

	seedCacheRow(t, repo, "bitcoin", 58000, 10*time.Minute)

	// bitcoin has a stale row; solana has nothing at all.
	prices, err := svc.GetPrices(context.Background(), []string{"bitcoin", "solana"})
	require.NoError(t, err, "provider failures must never surface as errors")
	require.Contains(t, prices, "bitcoin")
	assert.Equal(t, 58000.0, prices["bitcoin"].PriceUSD)
	assert.Equal(t, Stale, prices["bitcoin"].Freshness)
	assert.NotContains(t, prices, "solana", "no cache row and no provider data means absent")
}

func TestGetPricesProviderOmitsRequestedID(t *testing.T) {
	// The provider answers the batch but does not know "dogwifcoin".
	provider := &fakeProvider{quotes: map[string]coingecko.Quote{
		"bitcoin": {USD: 60000},
	}}
	svc, _ := newTestService(t, provider)

	prices, err := svc.GetPrices(context.Background(), []string{"bitcoin", "dogwifcoin"})
	require.NoError(t, err)
	assert.Contains(t, prices, "bitcoin")
	assert.NotContains(t, prices, "dogwifcoin", "unresolved id must not fail the batch")
}

func TestGetPricesDedupesInput(t *testing.T) {
	provider := &fakeProvider{quotes: map[string]coingecko.Quote{
		"bitcoin": {USD: 60000},
	}}
	svc, _ := newTestService(t, provider)

	prices, err := svc.GetPrices(context.Background(), []string{"bitcoin", "bitcoin", "", "bitcoin"})
	require.NoError(t, err)
	assert.Len(t, prices, 1)
	assert.Equal(t, 1, provider.calls)
	assert.Equal(t, []string{"bitcoin"}, provider.lastID)
}

func TestGetPricesMixedFreshAndStale(t *testing.T) {
	provider := &fakeProvider{quotes: map[string]coingecko.Quote{
		"ethereum": {USD: 2600},
	}}
	svc, repo := newTestService(t, provider)

	seedCacheRow(t, repo, "bitcoin", 60000, 5*time.Second)
	seedCacheRow(t, repo, "ethereum", 2400, 2*time.Minute)

	prices, err := svc.GetPrices(context.Background(), []string{"bitcoin", "ethereum"})
	require.NoError(t, err)
	assert.Equal(t, 60000.0, prices["bitcoin"].PriceUSD, "fresh row served from cache")
	assert.Equal(t, 2600.0, prices["ethereum"].PriceUSD, "stale row refetched")
	assert.Equal(t, []string{"ethereum"}, provider.lastID, "only the stale id goes to the provider")
}

func TestCachePrices(t *testing.T) {
	svc, repo := newTestService(t, &fakeProvider{})

	count, err := svc.CachePrices([]CoinPrice{
		{CoinID: "bitcoin", Symbol: "BTC", PriceUSD: 60000},
		{CoinID: "ethereum", PriceUSD: 2500},
		{CoinID: "", PriceUSD: 1}, // skipped
	})
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	rows, err := repo.GetMany([]string{"bitcoin", "ethereum"})
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	for _, row := range rows {
		if row.CoinID == "ethereum" {
			assert.Equal(t, "ETHERE", row.Symbol, "missing symbol is derived from the slug")
		}
	}
}

func TestIndicatorUpsertReplaces(t *testing.T) {
	svc, _ := newTestService(t, &fakeProvider{})

	require.NoError(t, svc.UpsertIndicator(Indicator{
		Name: "btc_dominance", Value: "52.1", Label: "BTC Dominance", Signal: "neutral", Source: "coingecko",
	}))
	require.NoError(t, svc.UpsertIndicator(Indicator{
		Name: "btc_dominance", Value: "54.8", Label: "BTC Dominance", Signal: "bullish", Source: "coingecko",
	}))

	indicators, err := svc.Indicators()
	require.NoError(t, err)
	require.Len(t, indicators, 1)
	assert.Equal(t, "54.8", indicators[0].Value)
	assert.Equal(t, "bullish", indicators[0].Signal)
}

func TestCleanupJobPrunesAbandonedRows(t *testing.T) {
	svc, repo := newTestService(t, &fakeProvider{})
	_ = svc

	seedCacheRow(t, repo, "bitcoin", 60000, time.Hour)
	seedCacheRow(t, repo, "delisted-coin", 0.0001, 45*24*time.Hour)

	job := NewCleanupJob(repo, zerolog.Nop())
	assert.Equal(t, "market_cache_cleanup", job.Name())
	require.NoError(t, job.Run())

	remaining, err := repo.GetAll()
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "bitcoin", remaining[0].CoinID)
}
