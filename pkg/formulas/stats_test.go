package formulas

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateReturns(t *testing.T) {
	tests := []struct {
		name   string
		prices []float64
		want   []float64
	}{
		{"empty", nil, []float64{}},
		{"single price", []float64{100}, []float64{}},
		{"two prices", []float64{100, 110}, []float64{0.1}},
		{"zero base", []float64{0, 10, 5}, []float64{0, -0.5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateReturns(tt.prices)
			require.Len(t, got, len(tt.want))
			for i := range tt.want {
				assert.InDelta(t, tt.want[i], got[i], 1e-12)
			}
		})
	}
}

func TestPercentChanges_ZeroBaseIsNotFinite(t *testing.T) {
	got := PercentChanges([]float64{0, 10})
	require.Len(t, got, 1)
	assert.False(t, IsFinite(got[0]))
	assert.False(t, AllFinite(got))
	assert.True(t, AllFinite(PercentChanges([]float64{1, 2, 3})))
}

func TestTotalReturn(t *testing.T) {
	assert.InDelta(t, 0.1, TotalReturn([]float64{100, 105, 110}), 1e-12)
	assert.True(t, math.IsNaN(TotalReturn(nil)))
	assert.True(t, math.IsNaN(TotalReturn([]float64{0, 1})))
}

func TestAnnualizedVolatility(t *testing.T) {
	assert.Equal(t, 0.0, AnnualizedVolatility(nil))
	assert.Equal(t, 0.0, AnnualizedVolatility([]float64{0.01}))

	// Constant returns have no dispersion.
	assert.InDelta(t, 0.0, AnnualizedVolatility([]float64{0.01, 0.01, 0.01}), 1e-12)

	// Sample std of {0.01, -0.01} is sqrt(0.0002).
	want := math.Sqrt(0.0002) * math.Sqrt(252)
	assert.InDelta(t, want, AnnualizedVolatility([]float64{0.01, -0.01}), 1e-12)
}

func TestCorrelation(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5}
	assert.InDelta(t, 1.0, Correlation(x, []float64{2, 4, 6, 8, 10}), 1e-12)
	assert.InDelta(t, -1.0, Correlation(x, []float64{5, 4, 3, 2, 1}), 1e-12)
	assert.Equal(t, 0.0, Correlation(x, []float64{1, 2}))
}

func TestCorrelationMatrix(t *testing.T) {
	t.Run("shape and symmetry", func(t *testing.T) {
		m := CorrelationMatrix([][]float64{
			{0.01, 0.02, -0.01, 0.03},
			{0.02, 0.04, -0.02, 0.06},
			{-0.01, 0.00, 0.02, -0.02},
		})
		require.Len(t, m, 3)
		for i := range m {
			require.Len(t, m[i], 3)
			assert.InDelta(t, 1.0, m[i][i], 1e-9)
			for j := range m {
				assert.InDelta(t, m[i][j], m[j][i], 1e-12)
			}
		}
		assert.InDelta(t, 1.0, m[0][1], 1e-9)
	})

	t.Run("constant series yields NaN", func(t *testing.T) {
		m := CorrelationMatrix([][]float64{
			{0.01, 0.02, 0.03},
			{0.0, 0.0, 0.0},
		})
		require.Len(t, m, 2)
		assert.True(t, math.IsNaN(m[0][1]))
	})

	t.Run("ragged input", func(t *testing.T) {
		assert.Nil(t, CorrelationMatrix([][]float64{{1, 2}, {1}}))
	})

	t.Run("too few observations", func(t *testing.T) {
		assert.Nil(t, CorrelationMatrix([][]float64{{1}, {2}}))
	})
}

func TestPairwiseCorrelation(t *testing.T) {
	a := map[string]float64{"d1": 0.01, "d2": -0.02, "d3": 0.015, "d4": 0.003}
	b := map[string]float64{"d1": 0.02, "d2": -0.04, "d3": 0.03, "d4": 0.006}
	short := map[string]float64{"d4": 0.01}
	gapped := map[string]float64{"d1": -0.01, "d2": math.NaN(), "d3": -0.015, "d9": 0.5}

	m := PairwiseCorrelation([]map[string]float64{a, b, short, gapped})
	require.Len(t, m, 4)

	for i := range m {
		assert.Equal(t, 1.0, m[i][i])
		for j := range m {
			if !math.IsNaN(m[i][j]) {
				assert.Equal(t, m[i][j], m[j][i])
			}
		}
	}

	assert.InDelta(t, 1.0, m[0][1], 1e-9, "a short series does not shrink the a/b window")
	assert.True(t, math.IsNaN(m[0][2]), "one shared observation is undefined")
	// d1 and d3 remain after dropping the NaN and the unshared key
	assert.InDelta(t, -1.0, m[0][3], 1e-9)
}

func TestRatios(t *testing.T) {
	assert.Equal(t, 0.0, ReturnToVolatility(10, 0))
	assert.InDelta(t, 0.5, ReturnToVolatility(10, 20), 1e-12)

	assert.Equal(t, 0.0, ExcessReturnRatio(0.1, 0, 0.02))
	assert.InDelta(t, 0.4, ExcessReturnRatio(0.1, 0.2, 0.02), 1e-12)
}

func TestCalculateSharpeRatio(t *testing.T) {
	assert.Nil(t, CalculateSharpeRatio([]float64{0.01}, 0.02, 252))
	assert.Nil(t, CalculateSharpeRatio([]float64{0.01, 0.01}, 0.02, 252))

	got := CalculateSharpeRatio([]float64{0.01, -0.005, 0.02, 0.0}, 0, 252)
	require.NotNil(t, got)
	assert.Greater(t, *got, 0.0)
}
