package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers the recommendation routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/portfolio/recommendations", h.HandleCreateRecommendation)
	r.Get("/portfolio/options", h.HandleGetOptions)
}
