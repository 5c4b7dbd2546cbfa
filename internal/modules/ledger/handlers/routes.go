package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all ledger routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/transactions", func(r chi.Router) {
		r.Post("/", h.HandleRecordTransaction)
		r.Get("/", h.HandleGetTransactions)
	})
	r.Get("/holdings", h.HandleGetHoldings)
}
