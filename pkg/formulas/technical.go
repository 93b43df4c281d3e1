package formulas

import (
	"math"

	"github.com/markcheno/go-talib"
)

// MACD holds the latest MACD line, signal line and histogram values.
type MACD struct {
	MACD      float64 `json:"macd"`
	Signal    float64 `json:"signal"`
	Histogram float64 `json:"histogram"`
}

// BollingerBands represents Bollinger Bands values
type BollingerBands struct {
	Upper  float64 `json:"upper"`
	Middle float64 `json:"middle"`
	Lower  float64 `json:"lower"`
}

// CalculateRSI returns the latest RSI(length) or nil if there is not enough data.
func CalculateRSI(closes []float64, length int) *float64 {
	if length < 2 || len(closes) < length+1 {
		return nil
	}
	return last(talib.Rsi(closes, length))
}

// CalculateMACD returns the latest MACD(fast, slow, signal) values.
func CalculateMACD(closes []float64, fast, slow, signal int) *MACD {
	if fast <= 0 || slow <= fast || signal <= 0 || len(closes) < slow+signal {
		return nil
	}

	macd, sig, hist := talib.Macd(closes, fast, slow, signal)
	m, s, h := last(macd), last(sig), last(hist)
	if m == nil || s == nil || h == nil {
		return nil
	}
	return &MACD{MACD: *m, Signal: *s, Histogram: *h}
}

// CalculateSMA returns the latest simple moving average over length closes.
func CalculateSMA(closes []float64, length int) *float64 {
	if length < 2 || len(closes) < length {
		return nil
	}
	return last(talib.Sma(closes, length))
}

// CalculateEMA returns the latest exponential moving average. With fewer
// closes than length it falls back to the plain mean.
func CalculateEMA(closes []float64, length int) *float64 {
	if len(closes) == 0 || length < 2 {
		return nil
	}
	if len(closes) < length {
		sma := Mean(closes)
		return &sma
	}
	return last(talib.Ema(closes, length))
}

// CalculateBollingerBands returns the latest bands around an SMA(length)
// middle line at +/- stdDevMultiplier population standard deviations.
func CalculateBollingerBands(closes []float64, length int, stdDevMultiplier float64) *BollingerBands {
	if length < 2 || len(closes) < length {
		return nil
	}

	upper, middle, lower := talib.BBands(closes, length, stdDevMultiplier, stdDevMultiplier, talib.SMA)
	u, m, l := last(upper), last(middle), last(lower)
	if u == nil || m == nil || l == nil {
		return nil
	}
	return &BollingerBands{Upper: *u, Middle: *m, Lower: *l}
}

func last(values []float64) *float64 {
	if len(values) == 0 {
		return nil
	}
	v := values[len(values)-1]
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
