// Package coingecko provides a client for the CoinGecko price API.
package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Quote is one coin's market data from the batch price endpoint.
// Pointer fields are nil when the provider omits them.
type Quote struct {
	USD          float64  `json:"usd"`
	USDMarketCap *float64 `json:"usd_market_cap"`
	USD24hVol    *float64 `json:"usd_24h_vol"`
	USD24hChange *float64 `json:"usd_24h_change"`
}

// Client for api.coingecko.com
type Client struct {
	baseURL string
	client  *http.Client
	log     zerolog.Logger
}

// NewClient creates a new CoinGecko client
func NewClient(baseURL string, log zerolog.Logger) *Client {
	if baseURL == "" {
		baseURL = "https://api.coingecko.com/api/v3"
	}
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
		log:     log.With().Str("client", "coingecko").Logger(),
	}
}

// SimplePrices fetches USD quotes for a batch of coin ids in one call.
// A requested id missing from the response map is not an error; the caller
// decides how to handle unresolved ids.
func (c *Client) SimplePrices(ctx context.Context, coinIDs []string) (map[string]Quote, error) {
	if len(coinIDs) == 0 {
		return map[string]Quote{}, nil
	}

	u := fmt.Sprintf("%s/simple/price?ids=%s&vs_currencies=usd&include_24hr_change=true&include_market_cap=true&include_24hr_vol=true",
		c.baseURL, url.QueryEscape(strings.Join(coinIDs, ",")))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("price request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("price API returned status %d", resp.StatusCode)
	}

	var quotes map[string]Quote
	if err := json.NewDecoder(resp.Body).Decode(&quotes); err != nil {
		return nil, fmt.Errorf("failed to parse price response: %w", err)
	}

	c.log.Debug().Int("requested", len(coinIDs)).Int("received", len(quotes)).Msg("Fetched quotes")
	return quotes, nil
}

// Global fetches global market statistics (total market cap, BTC dominance).
// The payload is passed through untouched for display.
func (c *Client) Global(ctx context.Context) (json.RawMessage, error) {
	return c.getRaw(ctx, c.baseURL+"/global")
}

// Trending fetches the currently trending coins.
func (c *Client) Trending(ctx context.Context) (json.RawMessage, error) {
	return c.getRaw(ctx, c.baseURL+"/search/trending")
}

func (c *Client) getRaw(ctx context.Context, u string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	var raw json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	return raw, nil
}
