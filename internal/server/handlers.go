package server

import (
	"encoding/json"
	"net/http"

	"github.com/avgerinos/coinfolio/internal/domain"
)

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":  "healthy",
		"version": "1.0.0",
		"service": "coinfolio",
	}

	s.writeJSON(w, http.StatusOK, response)
}

// ownerMiddleware requires an authenticated owner id on every request and
// makes it available downstream. Session verification happens upstream
// (reverse proxy); by the time a request reaches us the X-User-ID header is
// trusted, but its absence still means unauthenticated.
func (s *Server) ownerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Header.Get("X-User-ID")
		if userID == "" {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r.WithContext(domain.WithUserID(r.Context(), userID)))
	})
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
