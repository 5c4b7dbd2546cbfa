// Package handlers provides HTTP handlers for trade proposal decisions.
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
	"github.com/avgerinos/coinfolio/internal/modules/proposals"
)

// Handler handles proposal HTTP requests
type Handler struct {
	service *proposals.Service
	log     zerolog.Logger
}

// NewHandler creates a new proposals handler
func NewHandler(service *proposals.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "proposals").Logger(),
	}
}

// HandleGetProposals handles GET /api/proposals
func (h *Handler) HandleGetProposals(w http.ResponseWriter, r *http.Request) {
	userID := domain.UserIDFromContext(r.Context())
	status := r.URL.Query().Get("status")

	list, err := h.service.List(r.Context(), userID, status)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to query proposals")
		http.Error(w, "Failed to query proposals", http.StatusInternalServerError)
		return
	}
	if list == nil {
		list = []proposals.Proposal{}
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"proposals": list,
			"count":     len(list),
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// decisionRequest carries the optional note on an approve/reject
type decisionRequest struct {
	Note string `json:"note"`
}

// HandleApprove handles POST /api/proposals/{id}/approve
func (h *Handler) HandleApprove(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.service.Approve)
}

// HandleReject handles POST /api/proposals/{id}/reject
func (h *Handler) HandleReject(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.service.Reject)
}

func (h *Handler) decide(w http.ResponseWriter, r *http.Request,
	decide func(ctx context.Context, userID, proposalID, note string) error,
) {
	userID := domain.UserIDFromContext(r.Context())
	proposalID := chi.URLParam(r, "id")

	var body decisionRequest
	if r.Body != nil {
		// The note is optional; an empty or absent body is fine.
		_ = json.NewDecoder(r.Body).Decode(&body)
	}

	if err := decide(r.Context(), userID, proposalID, body.Note); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "Proposal not found or already decided", http.StatusNotFound)
			return
		}
		h.log.Error().Err(err).Str("proposal", proposalID).Msg("Failed to decide proposal")
		http.Error(w, "Failed to decide proposal", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{"decided": proposalID},
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
