package handlers

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// RegisterRoutes registers all scenario routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1/scenario", func(r chi.Router) {
		// large path counts take a while
		r.Use(middleware.Timeout(120 * time.Second))

		r.Post("/simulate", h.HandleSimulate)
		r.Get("/{ticker}", h.HandleTicker)
	})
}
