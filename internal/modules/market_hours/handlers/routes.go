package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all market hours routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/market/status", h.HandleGetStatus)
	r.Get("/market/holidays", h.HandleGetHolidays)
}
