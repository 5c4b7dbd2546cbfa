// Package handlers provides HTTP handlers for market data operations.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/avgerinos/coinfolio/internal/modules/market"
)

// GlobalSource provides exchange-wide aggregates for the overview page.
// Implemented by the coingecko client.
type GlobalSource interface {
	Global(ctx context.Context) (json.RawMessage, error)
	Trending(ctx context.Context) (json.RawMessage, error)
}

// SentimentSource provides the fear and greed index history.
type SentimentSource interface {
	History(ctx context.Context, limit int) (json.RawMessage, error)
}

// Handler handles market HTTP requests
type Handler struct {
	service   *market.Service
	global    GlobalSource
	sentiment SentimentSource
	log       zerolog.Logger
}

// NewHandler creates a new market handler
func NewHandler(service *market.Service, global GlobalSource, sentiment SentimentSource, log zerolog.Logger) *Handler {
	return &Handler{
		service:   service,
		global:    global,
		sentiment: sentiment,
		log:       log.With().Str("handler", "market").Logger(),
	}
}

// HandleGetPrices handles GET /api/market/prices?ids=bitcoin,ethereum
func (h *Handler) HandleGetPrices(w http.ResponseWriter, r *http.Request) {
	idsParam := strings.TrimSpace(r.URL.Query().Get("ids"))
	if idsParam == "" {
		http.Error(w, "Missing ids parameter", http.StatusBadRequest)
		return
	}

	var ids []string
	for _, id := range strings.Split(idsParam, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}

	prices, err := h.service.GetPrices(r.Context(), ids)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to resolve prices")
		http.Error(w, "Failed to resolve prices", http.StatusInternalServerError)
		return
	}

	out := make(map[string]interface{}, len(prices))
	for id, p := range prices {
		out[id] = priceJSON(p)
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"prices": out,
			"count":  len(out),
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleGetOverview handles GET /api/market/overview.
//
// External sources are fetched concurrently and best-effort: a failing
// upstream yields a null section, never a 5xx. Cached prices and analyst
// indicators come from local storage and are always present.
func (h *Handler) HandleGetOverview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var (
		wg        sync.WaitGroup
		global    json.RawMessage
		trending  json.RawMessage
		fearGreed json.RawMessage
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		var err error
		if global, err = h.global.Global(ctx); err != nil {
			h.log.Warn().Err(err).Msg("Global market data unavailable")
		}
	}()
	go func() {
		defer wg.Done()
		var err error
		if trending, err = h.global.Trending(ctx); err != nil {
			h.log.Warn().Err(err).Msg("Trending data unavailable")
		}
	}()
	go func() {
		defer wg.Done()
		var err error
		if fearGreed, err = h.sentiment.History(ctx, 7); err != nil {
			h.log.Warn().Err(err).Msg("Fear and greed data unavailable")
		}
	}()
	wg.Wait()

	cached, err := h.service.CachedPrices()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to read cached prices")
		http.Error(w, "Failed to read cached prices", http.StatusInternalServerError)
		return
	}
	indicators, err := h.service.Indicators()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to read indicators")
		http.Error(w, "Failed to read indicators", http.StatusInternalServerError)
		return
	}

	cachedOut := make([]map[string]interface{}, 0, len(cached))
	for _, p := range cached {
		cachedOut = append(cachedOut, priceJSON(p))
	}
	indicatorsOut := make([]map[string]interface{}, 0, len(indicators))
	for _, ind := range indicators {
		indicatorsOut = append(indicatorsOut, map[string]interface{}{
			"name":        ind.Name,
			"value":       ind.Value,
			"label":       ind.Label,
			"signal":      ind.Signal,
			"source":      ind.Source,
			"recorded_at": ind.RecordedAt.Format(time.RFC3339),
		})
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"global":        rawOrNil(global),
			"trending":      rawOrNil(trending),
			"fear_greed":    rawOrNil(fearGreed),
			"cached_prices": cachedOut,
			"indicators":    indicatorsOut,
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

func priceJSON(p market.CoinPrice) map[string]interface{} {
	return map[string]interface{}{
		"coin_id":          p.CoinID,
		"symbol":           p.Symbol,
		"price_usd":        p.PriceUSD,
		"price_change_24h": p.PriceChange24h,
		"market_cap":       p.MarketCap,
		"volume_24h":       p.Volume24h,
		"last_updated":     p.LastUpdated.Format(time.RFC3339),
		"freshness":        string(p.Freshness),
	}
}

func rawOrNil(raw json.RawMessage) interface{} {
	if len(raw) == 0 {
		return nil
	}
	return raw
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode response")
	}
}
