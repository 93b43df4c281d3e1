// Package portfolio computes the risk and return metrics of an allocation.
package portfolio

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/aristath/marketadvisor/internal/modules/allocation"
	"github.com/aristath/marketadvisor/internal/modules/analytics"
	"github.com/aristath/marketadvisor/pkg/formulas"
)

// varianceTolerance absorbs float rounding in fully hedged allocations
const varianceTolerance = 1e-12

// ErrLookup is returned when the inputs needed for a metric are missing or malformed
var ErrLookup = errors.New("portfolio metrics lookup failed")

// Metrics summarizes an allocation
type Metrics struct {
	ExpectedReturn float64 `json:"expected_return"`
	Volatility     float64 `json:"volatility"`
	SharpeRatio    float64 `json:"sharpe_ratio"`
	// Unmatched lists allocation keys missing from the sector performance
	// map or the correlation matrix. They contribute nothing to the metrics.
	Unmatched []string `json:"unmatched,omitempty"`
}

// CalculateMetrics computes expected return, volatility and Sharpe ratio.
//
// Expected return sums weight * returns over keys present in sector
// performance. Variance sums w_i * w_j * corr(i,j) * vol_i * vol_j over
// ordered pairs present in the correlation matrix; a key with no sector
// metric has zero volatility. Sharpe is (expected - 0.02) / volatility.
func CalculateMetrics(allocation map[string]float64, analysis *analytics.MarketAnalysis) (*Metrics, error) {
	if analysis == nil {
		return nil, fmt.Errorf("%w: no market analysis", ErrLookup)
	}
	if len(allocation) == 0 {
		return nil, fmt.Errorf("%w: empty allocation", ErrLookup)
	}
	if err := checkMatrix(analysis.Correlation.Matrix); err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(allocation))
	for k := range allocation {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	perf := analysis.SectorPerformance
	corr := analysis.Correlation.Matrix

	m := &Metrics{}
	for _, k := range keys {
		sector, inPerf := perf.Get(k)
		if inPerf {
			m.ExpectedReturn += allocation[k] * sector.Returns
		}
		if !inPerf || !corr.Has(k) {
			m.Unmatched = append(m.Unmatched, k)
		}
	}

	variance := 0.0
	for _, a := range keys {
		for _, b := range keys {
			c, ok := corr.Get(a, b)
			if !ok {
				continue
			}
			variance += allocation[a] * allocation[b] * c * volatility(perf, a) * volatility(perf, b)
		}
	}
	if variance < -varianceTolerance || math.IsNaN(variance) {
		return nil, fmt.Errorf("%w: portfolio variance %v is not a real volatility", ErrLookup, variance)
	}
	if math.Abs(variance) < varianceTolerance {
		variance = 0
	}

	m.Volatility = math.Sqrt(variance)
	m.SharpeRatio = formulas.ExcessReturnRatio(m.ExpectedReturn, m.Volatility, formulas.DefaultRiskFreeRate)
	return m, nil
}

// CalculateRecommendationMetrics applies CalculateMetrics to a recommendation's
// asset class allocation and embedded market analysis
func CalculateRecommendationMetrics(rec *allocation.Recommendation) (*Metrics, error) {
	if rec == nil {
		return nil, fmt.Errorf("%w: no recommendation", ErrLookup)
	}
	return CalculateMetrics(rec.Allocation.Map(), &rec.MarketAnalysis)
}

func volatility(perf analytics.SectorPerformance, key string) float64 {
	if m, ok := perf.Get(key); ok {
		return m.Volatility
	}
	return 0
}

func checkMatrix(m analytics.CorrelationMatrix) error {
	if len(m.Values) != len(m.Symbols) {
		return fmt.Errorf("%w: correlation matrix has %d rows for %d symbols", ErrLookup, len(m.Values), len(m.Symbols))
	}
	for i, row := range m.Values {
		if len(row) != len(m.Symbols) {
			return fmt.Errorf("%w: correlation row %s has %d columns", ErrLookup, m.Symbols[i], len(row))
		}
	}
	return nil
}
