// Package handlers provides HTTP handlers for ledger operations.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/avgerinos/coinfolio/internal/domain"
	"github.com/avgerinos/coinfolio/internal/modules/ledger"
)

// Handler handles ledger HTTP requests
type Handler struct {
	service *ledger.Service
	log     zerolog.Logger
}

// NewHandler creates a new ledger handler
func NewHandler(service *ledger.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "ledger").Logger(),
	}
}

// recordTransactionRequest is the wire format for POST /api/transactions
type recordTransactionRequest struct {
	CoinID       string  `json:"coin_id"`
	Symbol       string  `json:"symbol"`
	Name         string  `json:"name"`
	Type         string  `json:"type"`
	Bucket       string  `json:"bucket"`
	Quantity     string  `json:"quantity"`
	PricePerUnit string  `json:"price_per_unit"`
	Fee          string  `json:"fee"`
	Notes        string  `json:"notes"`
	TradedAt     *string `json:"traded_at"`
}

// HandleRecordTransaction handles POST /api/transactions
func (h *Handler) HandleRecordTransaction(w http.ResponseWriter, r *http.Request) {
	userID := domain.UserIDFromContext(r.Context())

	var body recordTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	quantity, err := decimal.NewFromString(body.Quantity)
	if err != nil {
		http.Error(w, "Invalid quantity", http.StatusBadRequest)
		return
	}
	price, err := decimal.NewFromString(body.PricePerUnit)
	if err != nil {
		http.Error(w, "Invalid price_per_unit", http.StatusBadRequest)
		return
	}
	fee := decimal.Zero
	if body.Fee != "" {
		if fee, err = decimal.NewFromString(body.Fee); err != nil {
			http.Error(w, "Invalid fee", http.StatusBadRequest)
			return
		}
	}

	var tradedAt time.Time
	if body.TradedAt != nil && *body.TradedAt != "" {
		if tradedAt, err = time.Parse(time.RFC3339, *body.TradedAt); err != nil {
			http.Error(w, "Invalid traded_at", http.StatusBadRequest)
			return
		}
	}

	tx, err := h.service.RecordTransaction(r.Context(), userID, ledger.RecordRequest{
		CoinID:       body.CoinID,
		Symbol:       body.Symbol,
		Name:         body.Name,
		Type:         ledger.TxType(body.Type),
		Bucket:       ledger.Bucket(body.Bucket),
		Quantity:     quantity,
		PricePerUnit: price,
		Fee:          fee,
		Notes:        body.Notes,
		TradedAt:     tradedAt,
	})
	if err != nil {
		if errors.Is(err, ledger.ErrNoHolding) || errors.Is(err, ledger.ErrInvalidInput) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.log.Error().Err(err).Msg("Failed to record transaction")
		http.Error(w, "Failed to record transaction", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusCreated, map[string]interface{}{
		"data": transactionJSON(tx),
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleGetTransactions handles GET /api/transactions
func (h *Handler) HandleGetTransactions(w http.ResponseWriter, r *http.Request) {
	userID := domain.UserIDFromContext(r.Context())

	filter := ledger.ListFilter{
		CoinID: r.URL.Query().Get("coin_id"),
		Type:   ledger.TxType(r.URL.Query().Get("type")),
	}
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 {
			filter.Limit = limit
		}
	}

	txs, err := h.service.Transactions(r.Context(), userID, filter)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to query transactions")
		http.Error(w, "Failed to query transactions", http.StatusInternalServerError)
		return
	}

	out := make([]map[string]interface{}, 0, len(txs))
	for _, tx := range txs {
		out = append(out, transactionJSON(tx))
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"transactions": out,
			"count":        len(out),
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleGetHoldings handles GET /api/holdings
func (h *Handler) HandleGetHoldings(w http.ResponseWriter, r *http.Request) {
	userID := domain.UserIDFromContext(r.Context())
	activeOnly := r.URL.Query().Get("all") != "true"

	holdings, err := h.service.Holdings(r.Context(), userID, activeOnly)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to query holdings")
		http.Error(w, "Failed to query holdings", http.StatusInternalServerError)
		return
	}

	out := make([]map[string]interface{}, 0, len(holdings))
	for _, hld := range holdings {
		out = append(out, map[string]interface{}{
			"id":            hld.ID,
			"coin_id":       hld.CoinID,
			"symbol":        hld.Symbol,
			"name":          hld.Name,
			"bucket":        string(hld.Bucket),
			"quantity":      hld.Quantity.String(),
			"avg_buy_price": hld.AvgBuyPrice.String(),
			"cost_basis":    hld.CostBasis.String(),
			"is_active":     hld.IsActive,
			"created_at":    hld.CreatedAt.Format(time.RFC3339),
			"updated_at":    hld.UpdatedAt.Format(time.RFC3339),
		})
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"holdings": out,
			"count":    len(out),
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

func transactionJSON(tx ledger.Transaction) map[string]interface{} {
	out := map[string]interface{}{
		"id":             tx.ID,
		"holding_id":     tx.HoldingID,
		"coin_id":        tx.CoinID,
		"symbol":         tx.Symbol,
		"type":           string(tx.Type),
		"bucket":         string(tx.Bucket),
		"quantity":       tx.Quantity.String(),
		"price_per_unit": tx.PricePerUnit.String(),
		"total_value":    tx.TotalValue.String(),
		"fee":            tx.Fee.String(),
		"notes":          tx.Notes,
		"traded_at":      tx.TradedAt.Format(time.RFC3339),
		"created_at":     tx.CreatedAt.Format(time.RFC3339),
	}
	if tx.RealizedPnl != nil {
		out["realized_pnl"] = tx.RealizedPnl.String()
	}
	return out
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode response")
	}
}
