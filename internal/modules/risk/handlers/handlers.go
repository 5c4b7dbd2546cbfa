// Package handlers provides HTTP handlers for risk metrics.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/avgerinos/coinfolio/internal/domain"
	"github.com/avgerinos/coinfolio/internal/modules/portfolio"
	"github.com/avgerinos/coinfolio/internal/modules/risk"
)

// Handler handles risk HTTP requests
type Handler struct {
	portfolio *portfolio.Service
	log       zerolog.Logger
}

// NewHandler creates a new risk handler
func NewHandler(portfolioService *portfolio.Service, log zerolog.Logger) *Handler {
	return &Handler{
		portfolio: portfolioService,
		log:       log.With().Str("handler", "risk").Logger(),
	}
}

// HandleGetSummary handles GET /api/risk/summary
func (h *Handler) HandleGetSummary(w http.ResponseWriter, r *http.Request) {
	userID := domain.UserIDFromContext(r.Context())

	enriched, err := h.portfolio.EnrichedHoldings(r.Context(), userID)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load enriched holdings")
		http.Error(w, "Failed to compute risk summary", http.StatusInternalServerError)
		return
	}

	assessment := risk.Score(enriched, portfolio.CalcAllocation(enriched))

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": assessment,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode response")
	}
}
