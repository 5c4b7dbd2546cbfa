// Package handlers provides HTTP handlers for analysis reports.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/avgerinos/coinfolio/internal/domain"
	"github.com/avgerinos/coinfolio/internal/modules/reports"
)

// Handler handles report HTTP requests
type Handler struct {
	service *reports.Service
	log     zerolog.Logger
}

// NewHandler creates a new reports handler
func NewHandler(service *reports.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "reports").Logger(),
	}
}

// HandleGetReports handles GET /api/reports
func (h *Handler) HandleGetReports(w http.ResponseWriter, r *http.Request) {
	userID := domain.UserIDFromContext(r.Context())
	reportType := r.URL.Query().Get("type")

	list, err := h.service.List(r.Context(), userID, reportType)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to query reports")
		http.Error(w, "Failed to query reports", http.StatusInternalServerError)
		return
	}
	if list == nil {
		list = []reports.Report{}
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"reports": list,
			"count":   len(list),
		},
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
