package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all opportunity routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/opportunities", func(r chi.Router) {
		r.Get("/", h.HandleGetOpportunities)
		r.Post("/{id}/watch", h.HandleWatch)
		r.Post("/{id}/pass", h.HandlePass)
	})
}
