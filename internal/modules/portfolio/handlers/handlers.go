// Package handlers provides HTTP handlers for portfolio valuation views.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/avgerinos/coinfolio/internal/domain"
	"github.com/avgerinos/coinfolio/internal/modules/portfolio"
)

// Handler handles portfolio HTTP requests
type Handler struct {
	service *portfolio.Service
	log     zerolog.Logger
}

// NewHandler creates a new portfolio handler
func NewHandler(service *portfolio.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "portfolio").Logger(),
	}
}

// HandleGetSummary handles GET /api/portfolio/summary
func (h *Handler) HandleGetSummary(w http.ResponseWriter, r *http.Request) {
	userID := domain.UserIDFromContext(r.Context())

	summary, err := h.service.Summary(r.Context(), userID)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to compute portfolio summary")
		http.Error(w, "Failed to compute portfolio summary", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": summary,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleGetAllocation handles GET /api/portfolio/allocation
func (h *Handler) HandleGetAllocation(w http.ResponseWriter, r *http.Request) {
	userID := domain.UserIDFromContext(r.Context())

	enriched, err := h.service.EnrichedHoldings(r.Context(), userID)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to compute allocation")
		http.Error(w, "Failed to compute allocation", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": portfolio.CalcAllocation(enriched),
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
