// Package technical computes indicator readings and trading signals for a
// single instrument.
package technical

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/aristath/marketadvisor/internal/clientdata"
	"github.com/aristath/marketadvisor/internal/config"
	"github.com/aristath/marketadvisor/internal/domain"
	"github.com/aristath/marketadvisor/internal/utils"
	"github.com/aristath/marketadvisor/pkg/formulas"
	"github.com/rs/zerolog"
)

// Signal values
const (
	SignalNeutral    = "Neutral"
	SignalOverbought = "Overbought"
	SignalOversold   = "Oversold"
	SignalBullish    = "Bullish"
	SignalBearish    = "Bearish"
)

// Periods accepted by Analyze
var Periods = map[string]bool{
	"1mo": true, "3mo": true, "6mo": true, "1y": true, "2y": true, "5y": true,
}

// Indicators are the latest indicator values. A nil field had too little history.
type Indicators struct {
	RSI       *float64                 `json:"rsi" msgpack:"rsi"`
	MACD      *formulas.MACD           `json:"macd" msgpack:"macd"`
	SMAShort  *float64                 `json:"sma_short" msgpack:"sma_short"`
	SMALong   *float64                 `json:"sma_long" msgpack:"sma_long"`
	EMAShort  *float64                 `json:"ema_short" msgpack:"ema_short"`
	EMALong   *float64                 `json:"ema_long" msgpack:"ema_long"`
	Bollinger *formulas.BollingerBands `json:"bollinger" msgpack:"bollinger"`
}

// Signals are the discrete readings derived from the indicators
type Signals struct {
	RSI  string `json:"rsi_signal" msgpack:"rsi_signal"`
	MACD string `json:"macd_signal" msgpack:"macd_signal"`
	MA   string `json:"ma_signal" msgpack:"ma_signal"`
	BB   string `json:"bb_signal" msgpack:"bb_signal"`
}

// Analysis is the technical picture of one symbol
type Analysis struct {
	Symbol       string                    `json:"symbol" msgpack:"symbol"`
	Period       string                    `json:"period" msgpack:"period"`
	Source       string                    `json:"source" msgpack:"source"`
	AsOf         time.Time                 `json:"as_of" msgpack:"as_of"`
	Bars         int                       `json:"bars" msgpack:"bars"`
	CurrentPrice float64                   `json:"current_price" msgpack:"current_price"`
	Returns      float64                   `json:"returns" msgpack:"returns"`       // total return over the period, percent
	Volatility   float64                   `json:"volatility" msgpack:"volatility"` // annualized, fraction
	SharpeRatio  *float64                  `json:"sharpe_ratio" msgpack:"sharpe_ratio"`
	CalmarRatio  float64                   `json:"calmar_ratio" msgpack:"calmar_ratio"`
	Drawdown     *formulas.DrawdownMetrics `json:"drawdown" msgpack:"drawdown"`
	Indicators   Indicators                `json:"indicators" msgpack:"indicators"`
	Signals      Signals                   `json:"signals" msgpack:"signals"`
}

// Analyzer runs technical analysis over provider history
type Analyzer struct {
	provider domain.MarketDataProvider
	params   config.TechnicalParams
	period   string
	store    clientdata.Store
	ttl      time.Duration
	log      zerolog.Logger
}

// NewAnalyzer creates an analyzer. store may be nil.
func NewAnalyzer(provider domain.MarketDataProvider, tables config.Tables, store clientdata.Store, log zerolog.Logger) *Analyzer {
	if store == nil {
		store = clientdata.NopStore{}
	}
	return &Analyzer{
		provider: provider,
		params:   tables.Technical,
		period:   tables.LookbackPeriod,
		store:    store,
		ttl:      tables.Cache.TTL(tables.Cache.TechnicalIndicators),
		log:      log.With().Str("component", "technical").Logger(),
	}
}

// Analyze fetches history for symbol over the default period
func (a *Analyzer) Analyze(ctx context.Context, symbol string) (*Analysis, error) {
	return a.AnalyzePeriod(ctx, symbol, a.period)
}

// AnalyzePeriod fetches history for symbol over period and computes
// indicators, signals and summary statistics
func (a *Analyzer) AnalyzePeriod(ctx context.Context, symbol, period string) (*Analysis, error) {
	sym, ok := utils.NormalizeSymbol(symbol)
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidSymbol, symbol)
	}
	if !Periods[period] {
		return nil, fmt.Errorf("unsupported period %q", period)
	}

	key := sym + ":" + period
	var cached Analysis
	if ok, err := a.store.GetIfFresh(ctx, clientdata.TableTechnicalIndicators, key, &cached); err != nil {
		a.log.Warn().Err(err).Str("symbol", sym).Msg("Failed to read cached analysis")
	} else if ok {
		return &cached, nil
	}

	series, err := a.provider.GetDailyHistory(ctx, sym, period)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch history for %s: %w", sym, err)
	}

	analysis, err := a.compute(sym, period, series)
	if err != nil {
		return nil, err
	}

	if err := a.store.Store(ctx, clientdata.TableTechnicalIndicators, key, analysis, a.ttl); err != nil {
		a.log.Warn().Err(err).Str("symbol", sym).Msg("Failed to cache analysis")
	}
	return analysis, nil
}

func (a *Analyzer) compute(symbol, period string, series *domain.PriceSeries) (*Analysis, error) {
	closes := series.Closes()
	if len(closes) < 2 {
		return nil, fmt.Errorf("%s has %d usable closes: %w", symbol, len(closes), domain.ErrNoData)
	}

	p := a.params
	ind := Indicators{
		RSI:       formulas.CalculateRSI(closes, p.RSIPeriod),
		MACD:      formulas.CalculateMACD(closes, p.MACDFast, p.MACDSlow, p.MACDSignal),
		SMAShort:  formulas.CalculateSMA(closes, p.SMAShort),
		SMALong:   formulas.CalculateSMA(closes, p.SMALong),
		EMAShort:  formulas.CalculateEMA(closes, p.EMAShort),
		EMALong:   formulas.CalculateEMA(closes, p.EMALong),
		Bollinger: formulas.CalculateBollingerBands(closes, p.BBPeriod, p.BBStdDev),
	}

	price := closes[len(closes)-1]
	returns := formulas.CalculateReturns(closes)

	analysis := &Analysis{
		Symbol:       symbol,
		Period:       period,
		Source:       series.Source,
		Bars:         len(closes),
		CurrentPrice: price,
		Returns:      formulas.TotalReturn(closes) * 100,
		Volatility:   formulas.StdDev(formulas.PercentChanges(closes)) * math.Sqrt(formulas.TradingDaysPerYear),
		SharpeRatio:  formulas.CalculateSharpeFromPrices(closes, formulas.DefaultRiskFreeRate),
		CalmarRatio:  formulas.CalculateCalmarRatio(returns),
		Drawdown:     formulas.CalculateDrawdownMetrics(closes),
		Indicators:   ind,
		Signals:      GenerateSignals(price, ind, p),
	}
	if bar, ok := series.Last(); ok {
		analysis.AsOf = bar.Date
	}
	if !formulas.IsFinite(analysis.Returns) || !formulas.IsFinite(analysis.Volatility) {
		return nil, fmt.Errorf("%s statistics are undefined: %w", symbol, domain.ErrNoData)
	}

	a.log.Debug().
		Str("symbol", symbol).
		Int("bars", analysis.Bars).
		Str("rsi_signal", analysis.Signals.RSI).
		Str("macd_signal", analysis.Signals.MACD).
		Msg("Technical analysis computed")

	return analysis, nil
}

// GenerateSignals reads the latest close against the indicators.
// Indicators without enough history read Neutral.
func GenerateSignals(price float64, ind Indicators, p config.TechnicalParams) Signals {
	s := Signals{RSI: SignalNeutral, MACD: SignalNeutral, MA: SignalNeutral, BB: SignalNeutral}

	if ind.RSI != nil {
		switch {
		case *ind.RSI > p.RSIOverbought:
			s.RSI = SignalOverbought
		case *ind.RSI < p.RSIOversold:
			s.RSI = SignalOversold
		}
	}

	if ind.MACD != nil {
		if ind.MACD.MACD > ind.MACD.Signal {
			s.MACD = SignalBullish
		} else {
			s.MACD = SignalBearish
		}
	}

	if ind.SMAShort != nil && ind.SMALong != nil {
		short, long := *ind.SMAShort, *ind.SMALong
		switch {
		case price > short && short > long:
			s.MA = SignalBullish
		case price < short && short < long:
			s.MA = SignalBearish
		}
	}

	if ind.Bollinger != nil {
		switch {
		case price > ind.Bollinger.Upper:
			s.BB = SignalOverbought
		case price < ind.Bollinger.Lower:
			s.BB = SignalOversold
		}
	}

	return s
}
