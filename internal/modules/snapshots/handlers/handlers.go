// Package handlers provides HTTP handlers for portfolio history.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/avgerinos/coinfolio/internal/domain"
	"github.com/avgerinos/coinfolio/internal/modules/snapshots"
)

// Handler handles snapshot HTTP requests
type Handler struct {
	service *snapshots.Service
	log     zerolog.Logger
}

// NewHandler creates a new snapshots handler
func NewHandler(service *snapshots.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "snapshots").Logger(),
	}
}

// HandleGetSnapshots handles GET /api/snapshots
func (h *Handler) HandleGetSnapshots(w http.ResponseWriter, r *http.Request) {
	userID := domain.UserIDFromContext(r.Context())
	days := queryDays(r, 90)

	history, err := h.service.History(r.Context(), userID, days)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to query snapshots")
		http.Error(w, "Failed to query snapshots", http.StatusInternalServerError)
		return
	}
	if history == nil {
		history = []snapshots.Snapshot{}
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"snapshots": history,
			"count":     len(history),
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleGetStats handles GET /api/snapshots/stats
func (h *Handler) HandleGetStats(w http.ResponseWriter, r *http.Request) {
	userID := domain.UserIDFromContext(r.Context())
	days := queryDays(r, 90)

	stats, err := h.service.Stats(r.Context(), userID, days)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to compute snapshot stats")
		http.Error(w, "Failed to compute snapshot stats", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": stats,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

func queryDays(r *http.Request, fallback int) int {
	if daysStr := r.URL.Query().Get("days"); daysStr != "" {
		if days, err := strconv.Atoi(daysStr); err == nil && days > 0 {
			return days
		}
	}
	return fallback
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode response")
	}
}
