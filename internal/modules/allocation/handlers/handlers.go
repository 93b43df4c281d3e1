// Package handlers provides HTTP handlers for portfolio recommendations.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/aristath/marketadvisor/internal/config"
	"github.com/aristath/marketadvisor/internal/domain"
	"github.com/aristath/marketadvisor/internal/modules/allocation"
	"github.com/aristath/marketadvisor/internal/modules/portfolio"
	"github.com/rs/zerolog"
)

// Handler handles recommendation HTTP requests
type Handler struct {
	engine *allocation.Engine
	tables config.Tables
	log    zerolog.Logger
}

// NewHandler creates a new recommendation handler
func NewHandler(engine *allocation.Engine, tables config.Tables, log zerolog.Logger) *Handler {
	return &Handler{
		engine: engine,
		tables: tables,
		log:    log.With().Str("handler", "allocation").Logger(),
	}
}

// HandleCreateRecommendation handles POST /api/portfolio/recommendations.
// Invalid input is rejected with 400; anything the engine cannot serve is
// answered with the default recommendation and status "fatal".
func (h *Handler) HandleCreateRecommendation(w http.ResponseWriter, r *http.Request) {
	var req allocation.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := req.Validate(); err != nil {
		var verr *allocation.ValidationError
		if errors.As(err, &verr) {
			h.writeJSON(w, http.StatusBadRequest, map[string]interface{}{
				"error":  "Invalid request",
				"fields": verr.Fields,
			})
			return
		}
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result := h.engine.Generate(r.Context(), req)

	data := map[string]interface{}{
		"result": result,
	}
	metrics, err := portfolio.CalculateRecommendationMetrics(&result.Recommendation)
	if err != nil {
		h.log.Warn().Err(err).Str("run_id", result.ID).Msg("Portfolio metrics unavailable")
		data["metrics_error"] = err.Error()
	} else {
		data["metrics"] = metrics
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": data,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
			"status":    result.Status,
		},
	})
}

// HandleGetOptions handles GET /api/portfolio/options.
// Lists the accepted risk levels, horizons and sectors.
func (h *Handler) HandleGetOptions(w http.ResponseWriter, r *http.Request) {
	riskLevels := make([]map[string]interface{}, 0, len(domain.RiskLevels))
	for _, level := range domain.RiskLevels {
		riskLevels = append(riskLevels, map[string]interface{}{
			"name":       level,
			"allocation": h.tables.RiskLevels[level],
		})
	}

	horizons := make([]map[string]interface{}, 0, len(domain.Horizons))
	for _, horizon := range domain.Horizons {
		horizons = append(horizons, map[string]interface{}{
			"name":   horizon,
			"months": h.tables.Horizons[horizon],
		})
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"risk_levels":         riskLevels,
			"investment_horizons": horizons,
			"sectors":             h.tables.Sectors,
			"base_currency":       allocation.BaseCurrency,
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

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
