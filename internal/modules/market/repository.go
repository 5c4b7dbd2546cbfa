package market

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Repository provides access to the persisted price cache (cache.db) and the
// analyst-written market indicators (portfolio.db).
type Repository struct {
	cacheDB     *sql.DB
	portfolioDB *sql.DB
	log         zerolog.Logger
}

// NewRepository creates a new market repository
func NewRepository(cacheDB, portfolioDB *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		cacheDB:     cacheDB,
		portfolioDB: portfolioDB,
		log:         log.With().Str("repo", "market").Logger(),
	}
}

// GetMany returns all cache rows for the requested coin ids, fresh or not.
// The caller partitions by age.
func (r *Repository) GetMany(coinIDs []string) ([]CoinPrice, error) {
	if len(coinIDs) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?,", len(coinIDs))
	placeholders = placeholders[:len(placeholders)-1]

	query := `SELECT coin_id, symbol, price_usd, price_change_24h, market_cap,
		volume_24h, last_updated
		FROM market_cache WHERE coin_id IN (` + placeholders + `)`

	args := make([]interface{}, len(coinIDs))
	for i, id := range coinIDs {
		args[i] = id
	}

	rows, err := r.cacheDB.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query market cache: %w", err)
	}
	defer rows.Close()

	var prices []CoinPrice
	for rows.Next() {
		var p CoinPrice
		var change, marketCap, volume sql.NullFloat64
		var lastUpdated int64

		if err := rows.Scan(&p.CoinID, &p.Symbol, &p.PriceUSD, &change, &marketCap,
			&volume, &lastUpdated); err != nil {
			return nil, fmt.Errorf("failed to scan cache row: %w", err)
		}

		if change.Valid {
			p.PriceChange24h = &change.Float64
		}
		if marketCap.Valid {
			p.MarketCap = &marketCap.Float64
		}
		if volume.Valid {
			p.Volume24h = &volume.Float64
		}
		p.LastUpdated = time.Unix(lastUpdated, 0).UTC()

		prices = append(prices, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cache rows: %w", err)
	}

	return prices, nil
}

// GetAll returns every cache row, most recently updated first
func (r *Repository) GetAll() ([]CoinPrice, error) {
	query := `SELECT coin_id, symbol, price_usd, price_change_24h, market_cap,
		volume_24h, last_updated
		FROM market_cache ORDER BY last_updated DESC`

	rows, err := r.cacheDB.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query market cache: %w", err)
	}
	defer rows.Close()

	var prices []CoinPrice
	for rows.Next() {
		var p CoinPrice
		var change, marketCap, volume sql.NullFloat64
		var lastUpdated int64

		if err := rows.Scan(&p.CoinID, &p.Symbol, &p.PriceUSD, &change, &marketCap,
			&volume, &lastUpdated); err != nil {
			return nil, fmt.Errorf("failed to scan cache row: %w", err)
		}

		if change.Valid {
			p.PriceChange24h = &change.Float64
		}
		if marketCap.Valid {
			p.MarketCap = &marketCap.Float64
		}
		if volume.Valid {
			p.Volume24h = &volume.Float64
		}
		p.LastUpdated = time.Unix(lastUpdated, 0).UTC()

		prices = append(prices, p)
	}

	return prices, rows.Err()
}

// Upsert writes one cache row, replacing any previous row for the coin
func (r *Repository) Upsert(p CoinPrice) error {
	query := `INSERT OR REPLACE INTO market_cache
		(coin_id, symbol, price_usd, price_change_24h, market_cap, volume_24h, last_updated)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	var change, marketCap, volume interface{}
	if p.PriceChange24h != nil {
		change = *p.PriceChange24h
	}
	if p.MarketCap != nil {
		marketCap = *p.MarketCap
	}
	if p.Volume24h != nil {
		volume = *p.Volume24h
	}

	_, err := r.cacheDB.Exec(query, p.CoinID, p.Symbol, p.PriceUSD, change,
		marketCap, volume, p.LastUpdated.Unix())
	if err != nil {
		return fmt.Errorf("failed to upsert cache row for %s: %w", p.CoinID, err)
	}

	return nil
}

// DeleteOlderThan prunes cache rows whose last update is before the cutoff.
// Returns the number of rows deleted.
func (r *Repository) DeleteOlderThan(cutoff time.Time) (int64, error) {
	result, err := r.cacheDB.Exec("DELETE FROM market_cache WHERE last_updated < ?", cutoff.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to prune market cache: %w", err)
	}
	return result.RowsAffected()
}

// UpsertIndicator writes a named market indicator, replacing the previous value
func (r *Repository) UpsertIndicator(ind Indicator) error {
	query := `INSERT INTO market_indicators (indicator_name, value, label, signal, source, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (indicator_name) DO UPDATE SET
			value = excluded.value,
			label = excluded.label,
			signal = excluded.signal,
			source = excluded.source,
			recorded_at = excluded.recorded_at`

	recordedAt := ind.RecordedAt
	if recordedAt.IsZero() {
		recordedAt = time.Now().UTC()
	}

	_, err := r.portfolioDB.Exec(query, ind.Name, ind.Value, ind.Label, ind.Signal,
		ind.Source, recordedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to upsert indicator %s: %w", ind.Name, err)
	}

	return nil
}

// ListIndicators returns all market indicators
func (r *Repository) ListIndicators() ([]Indicator, error) {
	rows, err := r.portfolioDB.Query(`SELECT indicator_name, value, label, signal, source, recorded_at
		FROM market_indicators ORDER BY indicator_name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query indicators: %w", err)
	}
	defer rows.Close()

	var indicators []Indicator
	for rows.Next() {
		var ind Indicator
		var label, signal, source sql.NullString
		var recordedAt string

		if err := rows.Scan(&ind.Name, &ind.Value, &label, &signal, &source, &recordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan indicator: %w", err)
		}

		ind.Label = label.String
		ind.Signal = signal.String
		ind.Source = source.String
		if ind.RecordedAt, err = time.Parse(time.RFC3339, recordedAt); err != nil {
			return nil, fmt.Errorf("invalid recorded_at %q: %w", recordedAt, err)
		}

		indicators = append(indicators, ind)
	}

	return indicators, rows.Err()
}
