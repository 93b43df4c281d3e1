package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers the portfolio metrics routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/portfolio/metrics", h.HandleCalculateMetrics)
}
