package formulas

import "math"

// DrawdownMetrics represents drawdown analysis results
type DrawdownMetrics struct {
	MaxDrawdown     float64 `json:"max_drawdown"`     // positive fraction, 0.25 = 25% below peak
	CurrentDrawdown float64 `json:"current_drawdown"` // distance of the last price from its peak
	DaysInDrawdown  int     `json:"days_in_drawdown"`
	PeakValue       float64 `json:"peak_value"`
	CurrentValue    float64 `json:"current_value"`
}

// Drawdowns returns the running drawdown series of cumulative returns built
// from periodic returns: (wealth - runningMax) / runningMax. Values are <= 0.
func Drawdowns(returns []float64) []float64 {
	if len(returns) == 0 {
		return []float64{}
	}

	out := make([]float64, len(returns))
	wealth := 1.0
	peak := math.Inf(-1)
	for i, r := range returns {
		wealth *= 1 + r
		if wealth > peak {
			peak = wealth
		}
		if peak != 0 {
			out[i] = (wealth - peak) / peak
		}
	}
	return out
}

// MaxDrawdownFromReturns is the most negative value of Drawdowns(returns).
func MaxDrawdownFromReturns(returns []float64) float64 {
	worst := 0.0
	for _, d := range Drawdowns(returns) {
		if d < worst {
			worst = d
		}
	}
	return worst
}

// CalculateMaxDrawdown calculates the maximum peak-to-trough decline of a
// price series as a positive fraction. Returns nil with fewer than 2 prices.
func CalculateMaxDrawdown(prices []float64) *float64 {
	if len(prices) < 2 {
		return nil
	}

	maxDrawdown := 0.0
	peak := prices[0]
	for _, price := range prices {
		if price > peak {
			peak = price
		}
		if peak > 0 {
			if dd := (peak - price) / peak; dd > maxDrawdown {
				maxDrawdown = dd
			}
		}
	}

	return &maxDrawdown
}

// CalculateDrawdownMetrics calculates max and current drawdown along with the
// peak and the number of observations since it.
func CalculateDrawdownMetrics(prices []float64) *DrawdownMetrics {
	if len(prices) < 2 {
		return nil
	}

	maxDrawdown := 0.0
	peak := prices[0]
	peakIndex := 0
	currentValue := prices[len(prices)-1]

	for i, price := range prices {
		if price > peak {
			peak = price
			peakIndex = i
		}
		if peak > 0 {
			if dd := (peak - price) / peak; dd > maxDrawdown {
				maxDrawdown = dd
			}
		}
	}

	currentDrawdown := 0.0
	if peak > 0 {
		currentDrawdown = (peak - currentValue) / peak
	}

	return &DrawdownMetrics{
		MaxDrawdown:     maxDrawdown,
		CurrentDrawdown: currentDrawdown,
		DaysInDrawdown:  len(prices) - 1 - peakIndex,
		PeakValue:       peak,
		CurrentValue:    currentValue,
	}
}

// CalculateCalmarRatio is the annualized mean return divided by the absolute
// max drawdown of daily returns. Returns 0 when there is no drawdown.
func CalculateCalmarRatio(returns []float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	maxDD := MaxDrawdownFromReturns(returns)
	if maxDD == 0 {
		return 0
	}
	annualReturn := Mean(returns) * TradingDaysPerYear
	return annualReturn / math.Abs(maxDD)
}
