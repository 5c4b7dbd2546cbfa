// Package handlers provides HTTP handlers for opportunity triage.
package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/avgerinos/coinfolio/internal/domain"
	"github.com/avgerinos/coinfolio/internal/modules/opportunities"
)

// Handler handles opportunity HTTP requests
type Handler struct {
	service *opportunities.Service
	log     zerolog.Logger
}

// NewHandler creates a new opportunities handler
func NewHandler(service *opportunities.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "opportunities").Logger(),
	}
}

// HandleGetOpportunities handles GET /api/opportunities
func (h *Handler) HandleGetOpportunities(w http.ResponseWriter, r *http.Request) {
	userID := domain.UserIDFromContext(r.Context())
	status := r.URL.Query().Get("status")

	list, err := h.service.List(r.Context(), userID, status)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to query opportunities")
		http.Error(w, "Failed to query opportunities", http.StatusInternalServerError)
		return
	}
	if list == nil {
		list = []opportunities.Opportunity{}
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"opportunities": list,
			"count":         len(list),
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleWatch handles POST /api/opportunities/{id}/watch
func (h *Handler) HandleWatch(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Watch)
}

// HandlePass handles POST /api/opportunities/{id}/pass
func (h *Handler) HandlePass(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Pass)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request,
	move func(ctx context.Context, userID, opportunityID string) error,
) {
	userID := domain.UserIDFromContext(r.Context())
	opportunityID := chi.URLParam(r, "id")

	if err := move(r.Context(), userID, opportunityID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "Opportunity not found", http.StatusNotFound)
			return
		}
		h.log.Error().Err(err).Str("opportunity", opportunityID).Msg("Failed to update opportunity")
		http.Error(w, "Failed to update opportunity", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{"updated": opportunityID},
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
