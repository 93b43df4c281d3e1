// Package handlers provides HTTP handlers for news sentiment.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/aristath/marketadvisor/internal/domain"
	"github.com/aristath/marketadvisor/internal/modules/sentiment"
	"github.com/rs/zerolog"
)

// Handler handles sentiment HTTP requests
type Handler struct {
	service *sentiment.Service
	log     zerolog.Logger
}

// NewHandler creates a new sentiment handler
func NewHandler(service *sentiment.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "sentiment").Logger(),
	}
}

// HandleGetQuerySentiment handles GET /api/sentiment?query=...&days=...
func (h *Handler) HandleGetQuerySentiment(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	if query == "" {
		h.writeError(w, http.StatusBadRequest, "query parameter is required")
		return
	}

	days := sentiment.DefaultDays
	if daysStr := r.URL.Query().Get("days"); daysStr != "" {
		parsed, err := strconv.Atoi(daysStr)
		if err != nil || parsed <= 0 {
			h.writeError(w, http.StatusBadRequest, "days must be a positive integer")
			return
		}
		days = parsed
	}

	result, err := h.service.AnalyzeQuery(r.Context(), query, days)
	if err != nil {
		h.writeServiceError(w, err, "Failed to analyze query sentiment")
		return
	}

	h.writeData(w, result)
}

// HandleGetMarketSentiment handles GET /api/sentiment/market
func (h *Handler) HandleGetMarketSentiment(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.MarketSentiment(r.Context())
	if err != nil {
		h.writeServiceError(w, err, "Failed to compute market sentiment")
		return
	}

	h.writeData(w, result)
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error, msg string) {
	status := http.StatusBadGateway
	switch {
	case errors.Is(err, domain.ErrNoData):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrNotConfigured):
		status = http.StatusServiceUnavailable
	}

	if status == http.StatusBadGateway {
		h.log.Error().Err(err).Msg(msg)
	} else {
		h.log.Warn().Err(err).Msg(msg)
	}
	h.writeError(w, status, err.Error())
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

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
