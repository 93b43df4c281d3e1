// Package handlers provides HTTP handlers for market hours operations.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/aristath/marketadvisor/internal/modules/market_hours"
	"github.com/rs/zerolog"
)

// Handler handles market hours HTTP requests
type Handler struct {
	service *market_hours.Service
	log     zerolog.Logger
}

// NewHandler creates a new market hours handler
func NewHandler(service *market_hours.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "market_hours").Logger(),
	}
}

// HandleGetStatus handles GET /api/market/status
// Returns the US session in effect now
func (h *Handler) HandleGetStatus(w http.ResponseWriter, r *http.Request) {
	status := h.service.Status(r.Context())

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": status,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleGetHolidays handles GET /api/market/holidays?year=2025
func (h *Handler) HandleGetHolidays(w http.ResponseWriter, r *http.Request) {
	year := time.Now().Year()
	if yearStr := r.URL.Query().Get("year"); yearStr != "" {
		parsed, err := strconv.Atoi(yearStr)
		if err != nil || parsed < 1971 || parsed > 2199 {
			h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid year " + yearStr})
			return
		}
		year = parsed
	}

	holidays := h.service.Holidays(year)
	dates := make([]map[string]string, 0, len(holidays))
	for _, holiday := range holidays {
		dates = append(dates, map[string]string{
			"name": holiday.Name,
			"date": holiday.Date.Format("2006-01-02"),
		})
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"year":     year,
			"holidays": dates,
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
