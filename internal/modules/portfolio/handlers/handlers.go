// Package handlers provides HTTP handlers for portfolio metrics.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/aristath/marketadvisor/internal/modules/allocation"
	"github.com/aristath/marketadvisor/internal/modules/analytics"
	"github.com/aristath/marketadvisor/internal/modules/portfolio"
	"github.com/rs/zerolog"
)

// MetricsRequest is the body of POST /api/portfolio/metrics.
// Without market_analysis the current analysis is used.
type MetricsRequest struct {
	Allocation     map[string]float64        `json:"allocation"`
	MarketAnalysis *analytics.MarketAnalysis `json:"market_analysis,omitempty"`
}

// Handler handles portfolio metrics HTTP requests
type Handler struct {
	analysis allocation.AnalysisSource
	log      zerolog.Logger
}

// NewHandler creates a new portfolio metrics handler
func NewHandler(analysis allocation.AnalysisSource, log zerolog.Logger) *Handler {
	return &Handler{
		analysis: analysis,
		log:      log.With().Str("handler", "portfolio").Logger(),
	}
}

// HandleCalculateMetrics handles POST /api/portfolio/metrics
func (h *Handler) HandleCalculateMetrics(w http.ResponseWriter, r *http.Request) {
	var req MetricsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	analysis := req.MarketAnalysis
	if analysis == nil {
		analysis = h.analysis.MarketAnalysis(r.Context())
	}

	metrics, err := portfolio.CalculateMetrics(req.Allocation, analysis)
	if err != nil {
		if errors.Is(err, portfolio.ErrLookup) {
			h.writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		h.log.Error().Err(err).Msg("Failed to calculate portfolio metrics")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": metrics,
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

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
