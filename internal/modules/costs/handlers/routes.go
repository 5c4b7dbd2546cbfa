package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all cost item routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/costs", func(r chi.Router) {
		r.Post("/", h.HandleAddCost)
		r.Get("/", h.HandleGetCosts)
		r.Post("/{id}/end", h.HandleEndCost)
	})
}
