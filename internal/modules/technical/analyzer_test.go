package technical

import (
	"context"
	"testing"

	"github.com/aristath/marketadvisor/internal/clientdata"
	"github.com/aristath/marketadvisor/internal/config"
	"github.com/aristath/marketadvisor/internal/domain"
	testutil "github.com/aristath/marketadvisor/internal/testing"
	"github.com/aristath/marketadvisor/pkg/formulas"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v float64) *float64 { return &v }

func newAnalyzer(provider domain.MarketDataProvider, store clientdata.Store) *Analyzer {
	return NewAnalyzer(provider, config.DefaultTables(), store, zerolog.Nop())
}

func TestAnalyze_Uptrend(t *testing.T) {
	provider := testutil.NewMockMarketDataProvider("mock").
		SetSeries(testutil.GeometricSeries("AAPL", 100, 0.01, 80))

	a, err := newAnalyzer(provider, nil).Analyze(context.Background(), " aapl ")
	require.NoError(t, err)

	assert.Equal(t, "AAPL", a.Symbol)
	assert.Equal(t, "1y", a.Period)
	assert.Equal(t, 80, a.Bars)
	assert.Equal(t, "fixture", a.Source)
	assert.Greater(t, a.Returns, 100.0)
	assert.Equal(t, 0.0, a.Drawdown.MaxDrawdown)

	require.NotNil(t, a.Indicators.RSI)
	require.NotNil(t, a.Indicators.MACD)
	require.NotNil(t, a.Indicators.SMALong)
	require.NotNil(t, a.Indicators.Bollinger)

	assert.Equal(t, SignalOverbought, a.Signals.RSI)
	assert.Equal(t, SignalBullish, a.Signals.MACD)
	assert.Equal(t, SignalBullish, a.Signals.MA)
}

func TestAnalyze_Downtrend(t *testing.T) {
	provider := testutil.NewMockMarketDataProvider("mock").
		SetSeries(testutil.GeometricSeries("XOM", 100, -0.01, 80))

	a, err := newAnalyzer(provider, nil).Analyze(context.Background(), "XOM")
	require.NoError(t, err)

	assert.Less(t, a.Returns, 0.0)
	assert.Greater(t, a.Drawdown.MaxDrawdown, 0.5)
	assert.Equal(t, SignalOversold, a.Signals.RSI)
	assert.Equal(t, SignalBearish, a.Signals.MACD)
	assert.Equal(t, SignalBearish, a.Signals.MA)
}

func TestAnalyze_ShortHistory(t *testing.T) {
	provider := testutil.NewMockMarketDataProvider("mock").
		SetSeries(testutil.NewPriceSeries("NEW", 10, 11, 10.5, 12, 11.5))

	a, err := newAnalyzer(provider, nil).Analyze(context.Background(), "NEW")
	require.NoError(t, err)

	assert.Nil(t, a.Indicators.RSI)
	assert.Nil(t, a.Indicators.MACD)
	assert.Nil(t, a.Indicators.Bollinger)
	require.NotNil(t, a.Indicators.EMAShort)
	assert.InDelta(t, formulas.Mean([]float64{10, 11, 10.5, 12, 11.5}), *a.Indicators.EMAShort, 1e-9)
	assert.Equal(t, Signals{RSI: SignalNeutral, MACD: SignalNeutral, MA: SignalNeutral, BB: SignalNeutral}, a.Signals)
	assert.InDelta(t, 15.0, a.Returns, 1e-9)
	assert.Greater(t, a.Volatility, 0.0)
}

func TestAnalyze_Errors(t *testing.T) {
	provider := testutil.NewMockMarketDataProvider("mock").
		SetSeries(testutil.NewPriceSeries("ONE", 10))
	analyzer := newAnalyzer(provider, nil)

	tests := []struct {
		name   string
		symbol string
		period string
		target error
	}{
		{"invalid symbol", "not a ticker!", "1y", domain.ErrInvalidSymbol},
		{"unknown symbol", "MSFT", "1y", domain.ErrNoData},
		{"single close", "ONE", "1y", domain.ErrNoData},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := analyzer.AnalyzePeriod(context.Background(), tt.symbol, tt.period)
			assert.ErrorIs(t, err, tt.target)
		})
	}

	_, err := analyzer.AnalyzePeriod(context.Background(), "ONE", "7y")
	assert.Error(t, err)
	assert.Equal(t, 0, provider.Calls("NOT A TICKER!"))
}

func TestAnalyze_Cached(t *testing.T) {
	db, cleanup := testutil.NewTestDB(t, "cache")
	defer cleanup()

	provider := testutil.NewMockMarketDataProvider("mock").
		SetSeries(testutil.GeometricSeries("AAPL", 100, 0.01, 60))
	analyzer := newAnalyzer(provider, clientdata.NewRepository(db.Conn()))

	first, err := analyzer.Analyze(context.Background(), "AAPL")
	require.NoError(t, err)
	second, err := analyzer.Analyze(context.Background(), "AAPL")
	require.NoError(t, err)

	assert.Equal(t, 1, provider.Calls("AAPL"))
	assert.Equal(t, first.Signals, second.Signals)
	assert.Equal(t, *first.Indicators.RSI, *second.Indicators.RSI)

	_, err = analyzer.AnalyzePeriod(context.Background(), "AAPL", "6mo")
	require.NoError(t, err)
	assert.Equal(t, 2, provider.Calls("AAPL"))
}

func TestGenerateSignals(t *testing.T) {
	params := config.DefaultTables().Technical

	tests := []struct {
		name  string
		price float64
		ind   Indicators
		want  Signals
	}{
		{
			name: "no indicators",
			want: Signals{RSI: SignalNeutral, MACD: SignalNeutral, MA: SignalNeutral, BB: SignalNeutral},
		},
		{
			name:  "overbought everywhere",
			price: 120,
			ind: Indicators{
				RSI:       ptr(75),
				MACD:      &formulas.MACD{MACD: 2, Signal: 1},
				SMAShort:  ptr(110),
				SMALong:   ptr(100),
				Bollinger: &formulas.BollingerBands{Upper: 115, Middle: 110, Lower: 105},
			},
			want: Signals{RSI: SignalOverbought, MACD: SignalBullish, MA: SignalBullish, BB: SignalOverbought},
		},
		{
			name:  "oversold everywhere",
			price: 80,
			ind: Indicators{
				RSI:       ptr(25),
				MACD:      &formulas.MACD{MACD: -2, Signal: -1},
				SMAShort:  ptr(90),
				SMALong:   ptr(100),
				Bollinger: &formulas.BollingerBands{Upper: 95, Middle: 90, Lower: 85},
			},
			want: Signals{RSI: SignalOversold, MACD: SignalBearish, MA: SignalBearish, BB: SignalOversold},
		},
		{
			name:  "thresholds are exclusive",
			price: 100,
			ind: Indicators{
				RSI:       ptr(70),
				MACD:      &formulas.MACD{MACD: 1, Signal: 1},
				SMAShort:  ptr(100),
				SMALong:   ptr(90),
				Bollinger: &formulas.BollingerBands{Upper: 100, Middle: 95, Lower: 90},
			},
			want: Signals{RSI: SignalNeutral, MACD: SignalBearish, MA: SignalNeutral, BB: SignalNeutral},
		},
		{
			name:  "mixed moving averages",
			price: 105,
			ind:   Indicators{SMAShort: ptr(100), SMALong: ptr(110)},
			want:  Signals{RSI: SignalNeutral, MACD: SignalNeutral, MA: SignalNeutral, BB: SignalNeutral},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GenerateSignals(tt.price, tt.ind, params))
		})
	}
}
