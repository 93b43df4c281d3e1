// Package analytics computes the market analysis embedded in every
// recommendation: per-sector performance and the cross-asset correlation matrix.
package analytics

import (
	"time"
)

// SectorMetric is the one-year performance summary of a sector ETF
type SectorMetric struct {
	Returns     float64 `json:"returns" msgpack:"returns"`           // total return, percent
	Volatility  float64 `json:"volatility" msgpack:"volatility"`     // annualized, percent
	SharpeRatio float64 `json:"sharpe_ratio" msgpack:"sharpe_ratio"` // returns / volatility
}

// DefaultSectorMetric is substituted for a sector whose data is unusable.
// The unit volatility keeps later divisions defined.
func DefaultSectorMetric() SectorMetric {
	return SectorMetric{Returns: 0, Volatility: 1, SharpeRatio: 0}
}

// SectorPerformance holds one metric per configured sector, in configured order
type SectorPerformance struct {
	Sectors   []string                `json:"sectors" msgpack:"sectors"`
	Metrics   map[string]SectorMetric `json:"metrics" msgpack:"metrics"`
	Defaulted []string                `json:"defaulted,omitempty" msgpack:"defaulted"`
}

// Get returns the metric for sector
func (p SectorPerformance) Get(sector string) (SectorMetric, bool) {
	m, ok := p.Metrics[sector]
	return m, ok
}

// CorrelationResult is the output of the correlation calculator
type CorrelationResult struct {
	Matrix   CorrelationMatrix `json:"matrix" msgpack:"matrix"`
	Dropped  []string          `json:"dropped,omitempty" msgpack:"dropped"`
	Fallback bool              `json:"fallback" msgpack:"fallback"` // identity over the full basket
}

// MarketAnalysis is the market context attached to a recommendation
type MarketAnalysis struct {
	SectorPerformance SectorPerformance `json:"sector_performance" msgpack:"sector_performance"`
	Correlation       CorrelationResult `json:"correlation" msgpack:"correlation"`
	Notes             []string          `json:"notes,omitempty" msgpack:"notes"`
	GeneratedAt       time.Time         `json:"generated_at" msgpack:"generated_at"`
}

// Degraded reports whether any part of the analysis fell back to defaults
func (a *MarketAnalysis) Degraded() bool {
	return len(a.Notes) > 0
}
