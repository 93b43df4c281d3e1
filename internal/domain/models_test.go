package domain

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRiskLevel(t *testing.T) {
	r, err := ParseRiskLevel("medium")
	require.NoError(t, err)
	assert.Equal(t, RiskMedium, r)

	r, err = ParseRiskLevel(" HIGH ")
	require.NoError(t, err)
	assert.Equal(t, RiskHigh, r)

	_, err = ParseRiskLevel("EXTREME")
	assert.Error(t, err)
}

func TestParseHorizon(t *testing.T) {
	h, err := ParseHorizon("long_term")
	require.NoError(t, err)
	assert.Equal(t, HorizonLong, h)

	_, err = ParseHorizon("FOREVER")
	assert.Error(t, err)
}

func TestAssetAllocation(t *testing.T) {
	a := AssetAllocation{Equity: 0.5, Commodities: 0.2, Forex: 0.2, FixedIncome: 0.1}
	assert.InDelta(t, 1.0, a.Sum(), 1e-12)

	m := a.Map()
	assert.Len(t, m, 4)
	assert.Equal(t, 0.1, m[AssetFixedIncome])
}

func TestPriceSeries(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC) }

	s := &PriceSeries{
		Symbol: "SPY",
		Bars: []PriceBar{
			{Date: day(2), Close: 100},
			{Date: day(3), Close: math.NaN()},
			{Date: day(4), Close: 102},
			{Date: day(5), Close: math.NaN()},
		},
	}

	assert.Equal(t, []float64{100, 102}, s.Closes())
	assert.False(t, s.IsEmpty())

	last, ok := s.Last()
	require.True(t, ok)
	assert.Equal(t, 102.0, last.Close)

	byDate := s.ClosesByDate()
	assert.Len(t, byDate, 2)
	assert.Equal(t, 100.0, byDate["2024-01-02"])

	allMissing := &PriceSeries{Bars: []PriceBar{{Date: day(2), Close: math.NaN()}}}
	assert.True(t, allMissing.IsEmpty())

	var nilSeries *PriceSeries
	assert.True(t, nilSeries.IsEmpty())
	_, ok = nilSeries.Last()
	assert.False(t, ok)
}

func TestArticleText(t *testing.T) {
	a := Article{Title: "Fed holds", Description: "Rates unchanged"}
	assert.Equal(t, "Fed holds Rates unchanged", a.Text())
}
