package analytics

import "math"

// CorrelationMatrix is a square, symbol-indexed correlation matrix.
// Values[i][j] is the correlation between Symbols[i] and Symbols[j].
type CorrelationMatrix struct {
	Symbols []string    `json:"symbols" msgpack:"symbols"`
	Values  [][]float64 `json:"values" msgpack:"values"`
}

// Identity builds the "no known relationship" matrix over symbols
func Identity(symbols []string) CorrelationMatrix {
	m := CorrelationMatrix{
		Symbols: append([]string(nil), symbols...),
		Values:  make([][]float64, len(symbols)),
	}
	for i := range symbols {
		m.Values[i] = make([]float64, len(symbols))
		m.Values[i][i] = 1
	}
	return m
}

// newCorrelationMatrix wraps raw correlations, replacing undefined cells
// with 0, pinning the diagonal to 1 and clamping to [-1, 1]
func newCorrelationMatrix(symbols []string, raw [][]float64) CorrelationMatrix {
	m := Identity(symbols)
	for i := range symbols {
		for j := range symbols {
			if i == j {
				continue
			}
			v := raw[i][j]
			switch {
			case math.IsNaN(v) || math.IsInf(v, 0):
				v = 0
			case v > 1:
				v = 1
			case v < -1:
				v = -1
			}
			m.Values[i][j] = v
		}
	}
	return m
}

func (m CorrelationMatrix) index(symbol string) int {
	for i, s := range m.Symbols {
		if s == symbol {
			return i
		}
	}
	return -1
}

// Has reports whether symbol is a row of the matrix
func (m CorrelationMatrix) Has(symbol string) bool {
	return m.index(symbol) >= 0
}

// Get returns corr(a, b); ok is false if either symbol is absent
func (m CorrelationMatrix) Get(a, b string) (float64, bool) {
	i, j := m.index(a), m.index(b)
	if i < 0 || j < 0 {
		return 0, false
	}
	return m.Values[i][j], true
}

// Size is the number of symbols
func (m CorrelationMatrix) Size() int {
	return len(m.Symbols)
}

// IsIdentity reports whether every off-diagonal cell is zero
func (m CorrelationMatrix) IsIdentity() bool {
	for i := range m.Values {
		for j := range m.Values[i] {
			if i != j && m.Values[i][j] != 0 {
				return false
			}
		}
	}
	return true
}
