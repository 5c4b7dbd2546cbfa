package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all proposal routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/proposals", func(r chi.Router) {
		r.Get("/", h.HandleGetProposals)
		r.Post("/{id}/approve", h.HandleApprove)
		r.Post("/{id}/reject", h.HandleReject)
	})
}
