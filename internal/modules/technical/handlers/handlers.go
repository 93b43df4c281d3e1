// Package handlers provides HTTP handlers for technical analysis.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/aristath/marketadvisor/internal/domain"
	"github.com/aristath/marketadvisor/internal/modules/technical"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handler handles technical analysis HTTP requests
type Handler struct {
	analyzer *technical.Analyzer
	log      zerolog.Logger
}

// NewHandler creates a new technical analysis handler
func NewHandler(analyzer *technical.Analyzer, log zerolog.Logger) *Handler {
	return &Handler{
		analyzer: analyzer,
		log:      log.With().Str("handler", "technical").Logger(),
	}
}

// HandleGetAnalysis handles GET /api/technical/{symbol}?period=1y
func (h *Handler) HandleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")

	var (
		analysis *technical.Analysis
		err      error
	)
	if period := r.URL.Query().Get("period"); period != "" {
		if !technical.Periods[period] {
			h.writeError(w, http.StatusBadRequest, "unsupported period "+period)
			return
		}
		analysis, err = h.analyzer.AnalyzePeriod(r.Context(), symbol, period)
	} else {
		analysis, err = h.analyzer.Analyze(r.Context(), symbol)
	}

	if err != nil {
		status := http.StatusBadGateway
		switch {
		case errors.Is(err, domain.ErrInvalidSymbol):
			status = http.StatusBadRequest
		case errors.Is(err, domain.ErrNoData):
			status = http.StatusNotFound
		case errors.Is(err, domain.ErrNotConfigured):
			status = http.StatusServiceUnavailable
		default:
			h.log.Error().Err(err).Str("symbol", symbol).Msg("Technical analysis failed")
		}
		h.writeError(w, status, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": analysis,
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
