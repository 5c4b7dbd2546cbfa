// Package handlers provides HTTP handlers for cost item operations.
package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/avgerinos/coinfolio/internal/domain"
	"github.com/avgerinos/coinfolio/internal/modules/costs"
)

// Handler handles cost item HTTP requests
type Handler struct {
	service *costs.Service
	log     zerolog.Logger
}

// NewHandler creates a new costs handler
func NewHandler(service *costs.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "costs").Logger(),
	}
}

// addCostRequest is the wire format for POST /api/costs
type addCostRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
	Currency    string `json:"currency"`
	Frequency   string `json:"frequency"`
	Category    string `json:"category"`
	StartDate   string `json:"start_date"`
}

// HandleAddCost handles POST /api/costs
func (h *Handler) HandleAddCost(w http.ResponseWriter, r *http.Request) {
	userID := domain.UserIDFromContext(r.Context())

	var body addCostRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	amount, err := decimal.NewFromString(body.Amount)
	if err != nil {
		http.Error(w, "Invalid amount", http.StatusBadRequest)
		return
	}

	var startDate time.Time
	if body.StartDate != "" {
		if startDate, err = time.Parse(time.RFC3339, body.StartDate); err != nil {
			http.Error(w, "Invalid start_date", http.StatusBadRequest)
			return
		}
	}

	item, err := h.service.Add(r.Context(), userID, costs.AddRequest{
		Name:        body.Name,
		Description: body.Description,
		Amount:      amount,
		Currency:    body.Currency,
		Frequency:   costs.Frequency(body.Frequency),
		Category:    body.Category,
		StartDate:   startDate,
	})
	if err != nil {
		if errors.Is(err, costs.ErrInvalidInput) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.log.Error().Err(err).Msg("Failed to add cost item")
		http.Error(w, "Failed to add cost item", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusCreated, map[string]interface{}{
		"data": item,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleGetCosts handles GET /api/costs
func (h *Handler) HandleGetCosts(w http.ResponseWriter, r *http.Request) {
	userID := domain.UserIDFromContext(r.Context())
	activeOnly := r.URL.Query().Get("all") != "true"

	items, err := h.service.Items(r.Context(), userID, activeOnly)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to query cost items")
		http.Error(w, "Failed to query cost items", http.StatusInternalServerError)
		return
	}

	monthly, err := h.service.TotalMonthlyCosts(r.Context(), userID)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to aggregate costs")
		http.Error(w, "Failed to aggregate costs", http.StatusInternalServerError)
		return
	}

	if items == nil {
		items = []costs.Item{}
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"items":         items,
			"count":         len(items),
			"monthly_total": monthly,
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleEndCost handles POST /api/costs/{id}/end
func (h *Handler) HandleEndCost(w http.ResponseWriter, r *http.Request) {
	userID := domain.UserIDFromContext(r.Context())
	itemID := chi.URLParam(r, "id")

	if err := h.service.End(r.Context(), userID, itemID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "Cost item not found", http.StatusNotFound)
			return
		}
		h.log.Error().Err(err).Msg("Failed to end cost item")
		http.Error(w, "Failed to end cost item", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{"ended": itemID},
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
