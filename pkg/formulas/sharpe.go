package formulas

import "math"

// DefaultRiskFreeRate is the annual risk-free rate used by portfolio metrics.
const DefaultRiskFreeRate = 0.02

// CalculateSharpeRatio returns the annualized Sharpe ratio of periodic returns:
//
//	(mean(r) - rf/periods) / std(r) * sqrt(periods)
//
// Returns nil with fewer than two returns or zero dispersion.
func CalculateSharpeRatio(returns []float64, riskFreeRate float64, periodsPerYear int) *float64 {
	if len(returns) < 2 || periodsPerYear <= 0 {
		return nil
	}

	stdDev := StdDev(returns)
	if stdDev == 0 {
		return nil
	}

	periodicRiskFree := riskFreeRate / float64(periodsPerYear)
	sharpe := (Mean(returns) - periodicRiskFree) / stdDev * math.Sqrt(float64(periodsPerYear))

	return &sharpe
}

// CalculateSharpeFromPrices computes the daily-series Sharpe ratio directly from prices.
func CalculateSharpeFromPrices(prices []float64, riskFreeRate float64) *float64 {
	if len(prices) < 3 {
		return nil
	}
	return CalculateSharpeRatio(CalculateReturns(prices), riskFreeRate, TradingDaysPerYear)
}

// ReturnToVolatility is the simplified sector score: return% / volatility%,
// 0 when volatility is 0. No risk-free adjustment is applied.
func ReturnToVolatility(returnPct, volatilityPct float64) float64 {
	if volatilityPct == 0 {
		return 0
	}
	return returnPct / volatilityPct
}

// ExcessReturnRatio is (expectedReturn - riskFreeRate) / volatility, 0 when
// volatility is 0. Inputs are in whatever unit the caller uses consistently.
func ExcessReturnRatio(expectedReturn, volatility, riskFreeRate float64) float64 {
	if volatility == 0 {
		return 0
	}
	return (expectedReturn - riskFreeRate) / volatility
}
