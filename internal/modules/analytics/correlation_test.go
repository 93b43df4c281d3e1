package analytics

import (
	"context"
	"math"
	"testing"

	testutil "github.com/aristath/marketadvisor/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var basket = []string{"SPY", "GLD", "TLT", "UUP", "DBC"}

func TestIdentity(t *testing.T) {
	m := Identity(basket)
	assert.Equal(t, 5, m.Size())
	assert.True(t, m.IsIdentity())

	v, ok := m.Get("SPY", "SPY")
	assert.True(t, ok)
	assert.Equal(t, 1.0, v)
	v, ok = m.Get("SPY", "GLD")
	assert.True(t, ok)
	assert.Equal(t, 0.0, v)
	_, ok = m.Get("SPY", "BTC")
	assert.False(t, ok)
	assert.False(t, m.Has("equity"))
}

func TestNewCorrelationMatrix_Cleans(t *testing.T) {
	raw := [][]float64{
		{0.99999, math.NaN(), 1.0000001},
		{math.NaN(), 1, -1.2},
		{1.0000001, -1.2, math.Inf(1)},
	}
	m := newCorrelationMatrix([]string{"A", "B", "C"}, raw)

	for i := 0; i < 3; i++ {
		assert.Equal(t, 1.0, m.Values[i][i])
	}
	assert.Equal(t, 0.0, m.Values[0][1])
	assert.Equal(t, 1.0, m.Values[0][2])
	assert.Equal(t, -1.0, m.Values[1][2])
}

func TestAssetCorrelationCalculator(t *testing.T) {
	spy := testutil.ReturnsSeries("SPY", 100, 0.01, -0.02, 0.015, 0.003, -0.007, 0.012)
	// GLD moves exactly with SPY, TLT exactly against it
	gld := testutil.ReturnsSeries("GLD", 50, 0.01, -0.02, 0.015, 0.003, -0.007, 0.012)
	tlt := testutil.ReturnsSeries("TLT", 90, -0.01, 0.02, -0.015, -0.003, 0.007, -0.012)
	flat := testutil.NewPriceSeries("UUP", 28, 28, 28, 28, 28, 28, 28)

	provider := testutil.NewMockMarketDataProvider("mock").
		SetSeries(spy).SetSeries(gld).SetSeries(tlt).SetSeries(flat)

	result := NewAssetCorrelationCalculator(provider, basket, "1y", zerolog.Nop()).Calculate(context.Background())

	require.False(t, result.Fallback)
	assert.Equal(t, []string{"SPY", "GLD", "TLT", "UUP"}, result.Matrix.Symbols)
	assert.Equal(t, []string{"DBC"}, result.Dropped)

	v, _ := result.Matrix.Get("SPY", "GLD")
	assert.InDelta(t, 1.0, v, 1e-9)
	v, _ = result.Matrix.Get("SPY", "TLT")
	assert.InDelta(t, -1.0, v, 0.05)
	v, _ = result.Matrix.Get("SPY", "UUP")
	assert.Equal(t, 0.0, v, "zero-variance series correlates as 0")

	for i, row := range result.Matrix.Values {
		assert.Equal(t, 1.0, row[i])
		for j, cell := range row {
			assert.GreaterOrEqual(t, cell, -1.0)
			assert.LessOrEqual(t, cell, 1.0)
			assert.Equal(t, cell, result.Matrix.Values[j][i], "symmetric")
		}
	}
}

func TestAssetCorrelationCalculator_AlignsDates(t *testing.T) {
	spy := testutil.NewPriceSeries("SPY", 100, 101, 102, 103, 104)
	// GLD is missing the first bar; alignment drops that date for both
	gld := testutil.NewPriceSeries("GLD", 1, 50, 51, 52, 53)
	gld.Bars[0].Close = math.NaN()

	provider := testutil.NewMockMarketDataProvider("mock").SetSeries(spy).SetSeries(gld)
	result := NewAssetCorrelationCalculator(provider, []string{"SPY", "GLD"}, "1y", zerolog.Nop()).Calculate(context.Background())

	require.False(t, result.Fallback)
	v, ok := result.Matrix.Get("SPY", "GLD")
	require.True(t, ok)
	assert.False(t, math.IsNaN(v))
}

func TestAssetCorrelationCalculator_IdentityFallback(t *testing.T) {
	provider := testutil.NewMockMarketDataProvider("mock").
		SetSeries(testutil.NewPriceSeries("SPY", 100, 101, 102))

	result := NewAssetCorrelationCalculator(provider, basket, "1y", zerolog.Nop()).Calculate(context.Background())

	assert.True(t, result.Fallback)
	assert.Equal(t, basket, result.Matrix.Symbols, "identity covers the full basket")
	assert.True(t, result.Matrix.IsIdentity())
	assert.Len(t, result.Dropped, 4)
}

func TestAssetCorrelationCalculator_ShortHistoryKeepsOtherPairs(t *testing.T) {
	spy := testutil.ReturnsSeries("SPY", 100, 0.01, -0.02, 0.015, 0.003, -0.007, 0.012)
	gld := testutil.ReturnsSeries("GLD", 50, 0.01, -0.02, 0.015, 0.003, -0.007, 0.012)
	tlt := testutil.ReturnsSeries("TLT", 90, -0.01, 0.02, -0.015, -0.003, 0.007, -0.012)
	uup := testutil.ReturnsSeries("UUP", 28, 0.001, 0.002, -0.001, 0.0, 0.003, -0.002)
	// DBC only has the latest bar
	nan := math.NaN()
	dbc := testutil.NewPriceSeries("DBC", nan, nan, nan, nan, nan, nan, 21)

	provider := testutil.NewMockMarketDataProvider("mock").
		SetSeries(spy).SetSeries(gld).SetSeries(tlt).SetSeries(uup).SetSeries(dbc)

	result := NewAssetCorrelationCalculator(provider, basket, "1y", zerolog.Nop()).Calculate(context.Background())

	require.False(t, result.Fallback)
	assert.Empty(t, result.Dropped)
	assert.Equal(t, basket, result.Matrix.Symbols)
	assert.False(t, result.Matrix.IsIdentity())

	v, _ := result.Matrix.Get("SPY", "GLD")
	assert.InDelta(t, 1.0, v, 1e-9)
	v, _ = result.Matrix.Get("SPY", "TLT")
	assert.InDelta(t, -1.0, v, 0.05)
	v, _ = result.Matrix.Get("SPY", "DBC")
	assert.Equal(t, 0.0, v, "no shared changes correlates as 0")
	v, _ = result.Matrix.Get("DBC", "DBC")
	assert.Equal(t, 1.0, v)
}

func TestAssetCorrelationCalculator_NoOverlap(t *testing.T) {
	spy := testutil.NewPriceSeries("SPY", 100, 101, 102)
	gld := testutil.NewPriceSeries("GLD", 50, 51, 52)
	for i := range gld.Bars {
		gld.Bars[i].Date = gld.Bars[i].Date.AddDate(1, 0, 0)
	}

	provider := testutil.NewMockMarketDataProvider("mock").SetSeries(spy).SetSeries(gld)
	result := NewAssetCorrelationCalculator(provider, []string{"SPY", "GLD"}, "1y", zerolog.Nop()).Calculate(context.Background())

	// Both symbols have data, so the pair is neutral rather than a fallback
	assert.False(t, result.Fallback)
	assert.Equal(t, []string{"SPY", "GLD"}, result.Matrix.Symbols)
	assert.True(t, result.Matrix.IsIdentity())
}
