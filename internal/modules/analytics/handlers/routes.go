package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers the market analysis routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/market/analysis", h.HandleGetAnalysis)
	r.Get("/market/sectors", h.HandleGetSectors)
	r.Get("/market/correlation", h.HandleGetCorrelation)
	r.Get("/market/overview", h.HandleGetOverview)
}
