package server

import (
	"github.com/go-chi/chi/v5"
)

// SetupRoutes registers the API routes.
func SetupRoutes(router chi.Router, h *Handlers) {
	router.Get("/healthz", h.Health)

	router.Route("/api", func(r chi.Router) {
		r.Post("/ask", h.Ask) // Answer a question
		r.Post("/sql", h.SQL) // Preview the SQL for a question
	})
}
