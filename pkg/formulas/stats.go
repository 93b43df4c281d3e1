// Package formulas holds the numeric building blocks shared by the analytics
// modules: return series, volatility, correlation, risk-adjusted ratios and
// technical indicators.
package formulas

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// TradingDaysPerYear is the annualization factor for daily series.
const TradingDaysPerYear = 252

// Mean calculates the arithmetic mean of a slice of float64 values
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.Mean(data, nil)
}

// StdDev calculates the sample standard deviation (n-1 denominator)
func StdDev(data []float64) float64 {
	if len(data) < 2 {
		return 0
	}
	return stat.StdDev(data, nil)
}

// Variance calculates the sample variance (n-1 denominator)
func Variance(data []float64) float64 {
	if len(data) < 2 {
		return 0
	}
	return stat.Variance(data, nil)
}

// AnnualizedVolatility scales the standard deviation of daily returns by sqrt(252).
func AnnualizedVolatility(dailyReturns []float64) float64 {
	if len(dailyReturns) < 2 {
		return 0
	}
	return StdDev(dailyReturns) * math.Sqrt(TradingDaysPerYear)
}

// CalculateReturns converts prices to fractional returns.
// Returns[i] = (Price[i+1] - Price[i]) / Price[i]; a zero base price yields 0.
func CalculateReturns(prices []float64) []float64 {
	if len(prices) < 2 {
		return []float64{}
	}

	returns := make([]float64, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] != 0 {
			returns[i-1] = (prices[i] - prices[i-1]) / prices[i-1]
		}
	}

	return returns
}

// PercentChanges is CalculateReturns without the zero guard: a zero or
// missing base price produces NaN/Inf, which callers are expected to reject.
func PercentChanges(prices []float64) []float64 {
	if len(prices) < 2 {
		return []float64{}
	}

	out := make([]float64, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		out[i-1] = prices[i]/prices[i-1] - 1
	}
	return out
}

// TotalReturn is last/first - 1. Returns NaN for an empty or zero-based series.
func TotalReturn(prices []float64) float64 {
	if len(prices) == 0 || prices[0] == 0 {
		return math.NaN()
	}
	return prices[len(prices)-1]/prices[0] - 1
}

// IsFinite reports whether v is neither NaN nor infinite.
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// AllFinite reports whether every value in data is finite.
func AllFinite(data []float64) bool {
	for _, v := range data {
		if !IsFinite(v) {
			return false
		}
	}
	return true
}

// Correlation calculates the Pearson correlation coefficient between two datasets
func Correlation(x, y []float64) float64 {
	if len(x) == 0 || len(y) == 0 || len(x) != len(y) {
		return 0
	}
	return stat.Correlation(x, y, nil)
}

// Covariance calculates the covariance between two datasets
func Covariance(x, y []float64) float64 {
	if len(x) == 0 || len(y) == 0 || len(x) != len(y) {
		return 0
	}
	return stat.Covariance(x, y, nil)
}

// CorrelationMatrix computes pairwise Pearson correlations for equally long
// series. The result is indexed like the input. Cells that are undefined
// (zero variance) come back as NaN; callers decide how to neutralize them.
func CorrelationMatrix(series [][]float64) [][]float64 {
	n := len(series)
	if n == 0 {
		return nil
	}
	rows := len(series[0])
	for _, s := range series {
		if len(s) != rows {
			return nil
		}
	}
	if rows < 2 {
		return nil
	}

	// Observations are rows, variables are columns.
	data := mat.NewDense(rows, n, nil)
	for j, s := range series {
		for i, v := range s {
			data.Set(i, j, v)
		}
	}

	var sym mat.SymDense
	stat.CorrelationMatrix(&sym, data, nil)

	out := make([][]float64, n)
	for i := 0; i < n; i++ {
		out[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			out[i][j] = sym.At(i, j)
		}
	}
	return out
}

// PairwiseCorrelation correlates keyed observations (for example daily
// returns by date). Each cell uses only the keys both series share, so a short
// series does not narrow the window of the others. Cells with fewer than two
// shared finite observations, or zero variance, come back as NaN.
func PairwiseCorrelation(series []map[string]float64) [][]float64 {
	n := len(series)
	out := make([][]float64, n)
	for i := range out {
		out[i] = make([]float64, n)
		out[i][i] = 1
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			x, y := sharedObservations(series[i], series[j])
			c := math.NaN()
			if len(x) >= 2 {
				c = stat.Correlation(x, y, nil)
			}
			out[i][j], out[j][i] = c, c
		}
	}
	return out
}

// sharedObservations returns the finite values of a and b at their common
// keys, in key order
func sharedObservations(a, b map[string]float64) (x, y []float64) {
	keys := make([]string, 0, len(a))
	for k, av := range a {
		if bv, ok := b[k]; ok && IsFinite(av) && IsFinite(bv) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	x = make([]float64, len(keys))
	y = make([]float64, len(keys))
	for i, k := range keys {
		x[i], y[i] = a[k], b[k]
	}
	return x, y
}
