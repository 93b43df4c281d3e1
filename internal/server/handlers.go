package server

import (
	"encoding/json"
	"net/http"
)

// HealthResponse is the GET /health payload. Status is degraded when every
// market data provider is behind an open breaker; the endpoint still answers 200.
type HealthResponse struct {
	Status       string            `json:"status"`
	Version      string            `json:"version"`
	Service      string            `json:"service"`
	CacheBackend string            `json:"cache_backend"`
	Providers    map[string]string `json:"providers,omitempty"`
	Upstreams    map[string]bool   `json:"upstreams"`
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	cfg := s.container.Config

	response := HealthResponse{
		Status:       "healthy",
		Version:      Version,
		Service:      "marketadvisor",
		CacheBackend: cfg.CacheBackend,
		Upstreams: map[string]bool{
			"alphavantage":     cfg.AlphaVantageAPIKey != "",
			"news":             cfg.NewsAPIKey != "",
			"sentiment_model":  cfg.HuggingFaceAPIToken != "",
			"entity_extractor": cfg.OpenAIAPIKey != "",
		},
	}

	if s.container.MarketDataChain != nil {
		response.Providers = s.container.MarketDataChain.BreakerStates()
		if allOpen(response.Providers) {
			response.Status = "degraded"
		}
	}

	s.writeJSON(w, http.StatusOK, response)
}

func allOpen(states map[string]string) bool {
	if len(states) == 0 {
		return false
	}
	for _, state := range states {
		if state != "open" {
			return false
		}
	}
	return true
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
