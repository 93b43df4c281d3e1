package allocation

import (
	"math"

	"github.com/aristath/marketadvisor/internal/domain"
	"github.com/aristath/marketadvisor/internal/modules/analytics"
)

// Horizon multipliers
const (
	shortEquityFactor      = 0.8
	shortFixedIncomeFactor = 1.2
	longEquityFactor       = 1.2
	longFixedIncomeFactor  = 0.8
)

// AdjustForHorizon scales equity and fixed income for short and long horizons.
// months <= shortMonths tilts toward fixed income, months >= longMonths
// toward equity. Commodities and forex are untouched and the result is not
// renormalized.
func AdjustForHorizon(base domain.AssetAllocation, months, shortMonths, longMonths int) domain.AssetAllocation {
	adjusted := base
	switch {
	case months <= shortMonths:
		adjusted.Equity *= shortEquityFactor
		adjusted.FixedIncome *= shortFixedIncomeFactor
	case months >= longMonths:
		adjusted.Equity *= longEquityFactor
		adjusted.FixedIncome *= longFixedIncomeFactor
	}
	return adjusted
}

// RawSectorWeight scores a sector as (sharpe + 1) * (1 + returns/100), floored at 0
func RawSectorWeight(m analytics.SectorMetric) float64 {
	w := (m.SharpeRatio + 1) * (1 + m.Returns/100)
	if math.IsNaN(w) || w < 0 {
		return 0
	}
	return w
}

// SectorWeights normalizes the raw weights of sectors to sum to 1.
// Sectors without a metric score as the default metric. When every raw
// weight is 0 each sector gets 1/len(sectors).
func SectorWeights(sectors []string, perf analytics.SectorPerformance) map[string]float64 {
	weights := make(map[string]float64, len(sectors))
	if len(sectors) == 0 {
		return weights
	}

	total := 0.0
	for _, s := range sectors {
		m, ok := perf.Get(s)
		if !ok {
			m = analytics.DefaultSectorMetric()
		}
		w := RawSectorWeight(m)
		weights[s] = w
		total += w
	}

	if total == 0 || math.IsInf(total, 0) {
		equal := 1.0 / float64(len(sectors))
		for _, s := range sectors {
			weights[s] = equal
		}
		return weights
	}

	for s, w := range weights {
		weights[s] = w / total
	}
	return weights
}

// SectorBreakdown converts sector weights into fractions of capital
func SectorBreakdown(weights map[string]float64, equity float64) map[string]float64 {
	out := make(map[string]float64, len(weights))
	for s, w := range weights {
		out[s] = w * equity
	}
	return out
}
