// Package feargreed provides a client for the alternative.me Fear & Greed index.
package feargreed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Client for api.alternative.me
type Client struct {
	baseURL string
	client  *http.Client
	log     zerolog.Logger
}

// NewClient creates a new Fear & Greed client
func NewClient(baseURL string, log zerolog.Logger) *Client {
	if baseURL == "" {
		baseURL = "https://api.alternative.me"
	}
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
		log:     log.With().Str("client", "feargreed").Logger(),
	}
}

// History fetches the last `limit` daily index values. The payload is passed
// through untouched for display; callers treat a failure as "no data".
func (c *Client) History(ctx context.Context, limit int) (json.RawMessage, error) {
	if limit <= 0 {
		limit = 7
	}

	u := fmt.Sprintf("%s/fng/?limit=%d", c.baseURL, limit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fear & greed request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fear & greed API returned status %d", resp.StatusCode)
	}

	var raw json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to parse fear & greed response: %w", err)
	}

	return raw, nil
}
