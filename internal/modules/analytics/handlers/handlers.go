// Package handlers provides HTTP handlers for market analysis.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/aristath/marketadvisor/internal/modules/analytics"
	"github.com/rs/zerolog"
)

// Handler handles market analysis HTTP requests
type Handler struct {
	service  *analytics.Service
	overview *analytics.MarketOverview
	log      zerolog.Logger
}

// NewHandler creates a new market analysis handler
func NewHandler(service *analytics.Service, overview *analytics.MarketOverview, log zerolog.Logger) *Handler {
	return &Handler{
		service:  service,
		overview: overview,
		log:      log.With().Str("handler", "analytics").Logger(),
	}
}

// HandleGetAnalysis handles GET /api/market/analysis
func (h *Handler) HandleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	analysis := h.service.MarketAnalysis(r.Context())
	h.writeData(w, analysis)
}

// HandleGetSectors handles GET /api/market/sectors
func (h *Handler) HandleGetSectors(w http.ResponseWriter, r *http.Request) {
	analysis := h.service.MarketAnalysis(r.Context())
	h.writeData(w, analysis.SectorPerformance)
}

// HandleGetCorrelation handles GET /api/market/correlation
func (h *Handler) HandleGetCorrelation(w http.ResponseWriter, r *http.Request) {
	analysis := h.service.MarketAnalysis(r.Context())
	h.writeData(w, analysis.Correlation)
}

// HandleGetOverview handles GET /api/market/overview?group=indices|commodities|forex.
// Without a group every group is returned.
func (h *Handler) HandleGetOverview(w http.ResponseWriter, r *http.Request) {
	groups := h.overview.Groups()
	if g := r.URL.Query().Get("group"); g != "" {
		groups = []string{g}
	}

	data := make(map[string][]analytics.InstrumentSnapshot, len(groups))
	for _, group := range groups {
		snaps, err := h.overview.Snapshot(r.Context(), group)
		if err != nil {
			h.log.Warn().Err(err).Str("group", group).Msg("Failed to build market overview")
			h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		data[group] = snaps
	}
	h.writeData(w, data)
}

func (h *Handler) writeData(w http.ResponseWriter, data interface{}) {
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": data,
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
