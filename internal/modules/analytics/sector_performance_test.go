package analytics

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/aristath/marketadvisor/internal/config"
	testutil "github.com/aristath/marketadvisor/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeSectorMetric(t *testing.T) {
	closes := []float64{100, 102, 101, 105}
	metric, err := ComputeSectorMetric(closes)
	require.NoError(t, err)

	assert.InDelta(t, 5.0, metric.Returns, 1e-9)

	changes := []float64{0.02, 101.0/102 - 1, 105.0/101 - 1}
	mean := (changes[0] + changes[1] + changes[2]) / 3
	var ss float64
	for _, c := range changes {
		ss += (c - mean) * (c - mean)
	}
	wantVol := math.Sqrt(ss/2) * math.Sqrt(252) * 100
	assert.InDelta(t, wantVol, metric.Volatility, 1e-9)
	assert.InDelta(t, 5.0/wantVol, metric.SharpeRatio, 1e-12)
}

func TestComputeSectorMetric_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		closes []float64
	}{
		{"empty", nil},
		{"single", []float64{100}},
		{"one return", []float64{100, 101}},
		{"zero base", []float64{0, 1, 2}},
		{"zero in middle", []float64{1, 0, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ComputeSectorMetric(tt.closes)
			assert.Error(t, err)
		})
	}
}

func TestComputeSectorMetric_FlatSeries(t *testing.T) {
	metric, err := ComputeSectorMetric([]float64{50, 50, 50, 50})
	require.NoError(t, err)
	assert.Equal(t, 0.0, metric.Volatility)
	assert.Equal(t, 0.0, metric.SharpeRatio)
}

func TestSectorPerformanceCalculator(t *testing.T) {
	provider := testutil.NewMockMarketDataProvider("mock").
		SetSeries(testutil.ReturnsSeries("XLK", 100, 0.01, -0.005, 0.02, 0.003, -0.001)).
		SetSeries(testutil.NewPriceSeries("XLE", math.NaN(), math.NaN())).
		SetSeries(testutil.NewPriceSeries("XLU", 10, 0, 11)).
		SetError("XLF", errors.New("timeout")).
		SetPanic("XLV")

	sectors := config.DefaultTables().Sectors
	calc := NewSectorPerformanceCalculator(provider, sectors, "1y", zerolog.Nop())
	perf := calc.Calculate(context.Background())

	require.Len(t, perf.Metrics, len(sectors), "every configured sector is present")
	assert.Equal(t, config.DefaultTables().SectorNames(), perf.Sectors)

	tech := perf.Metrics["Technology"]
	assert.Greater(t, tech.Returns, 0.0)
	assert.Greater(t, tech.Volatility, 0.0)

	for _, name := range []string{"Energy", "Utilities", "Finance", "Healthcare", "Materials"} {
		assert.Equal(t, DefaultSectorMetric(), perf.Metrics[name], name)
		assert.Contains(t, perf.Defaulted, name)
	}
	assert.NotContains(t, perf.Defaulted, "Technology")
}
