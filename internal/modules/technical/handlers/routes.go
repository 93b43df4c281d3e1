package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers the technical analysis routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/technical/{symbol}", h.HandleGetAnalysis)
}
