package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCorrelation(t *testing.T) {
	nan := math.NaN()
	tests := []struct {
		name  string
		x, y  []float64
		want  float64
		pairs int
	}{
		{"perfect positive", []float64{1, 2, 3, 4}, []float64{2, 4, 6, 8}, 1, 4},
		{"perfect negative", []float64{1, 2, 3}, []float64{3, 2, 1}, -1, 3},
		{"skips nan pairs", []float64{1, 2, nan, 3}, []float64{1, 2, 100, 3}, 1, 3},
		{"single pair", []float64{1, nan}, []float64{1, 2}, nan, 1},
		{"constant x", []float64{5, 5, 5}, []float64{1, 2, 3}, nan, 3},
		{"empty", nil, nil, nan, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Correlation("crime_count", tt.x, "PvrtyPr", tt.y)
			require.NoError(t, err)
			assert.Equal(t, tt.pairs, m.Pairs)
			if math.IsNaN(tt.want) {
				assert.True(t, math.IsNaN(m.Coefficient()))
				return
			}
			assert.InDelta(t, tt.want, m.Coefficient(), 1e-12)
			assert.InDelta(t, 1, m.R[0][0], 1e-12)
			assert.Equal(t, m.R[0][1], m.R[1][0])
		})
	}
}

func TestCorrelation_LengthMismatch(t *testing.T) {
	_, err := Correlation("a", []float64{1}, "b", []float64{1, 2})
	assert.Error(t, err)
}

func TestCorrelation_Partial(t *testing.T) {
	m, err := Correlation("a", []float64{1, 2, 3, 4, 5}, "b", []float64{2, 1, 4, 3, 5})
	require.NoError(t, err)
	assert.InDelta(t, 0.8, m.Coefficient(), 1e-12)
	assert.Contains(t, m.String(), "a")
}

func TestDescribe(t *testing.T) {
	s := Describe("crime_count", []float64{4, 1, math.NaN(), 3, 2})
	assert.Equal(t, 4, s.Count)
	assert.InDelta(t, 2.5, s.Mean, 1e-12)
	assert.InDelta(t, 1.2909944487, s.Std, 1e-9)
	assert.Equal(t, 1.0, s.Min)
	assert.InDelta(t, 1.75, s.P25, 1e-12)
	assert.InDelta(t, 2.5, s.P50, 1e-12)
	assert.InDelta(t, 3.25, s.P75, 1e-12)
	assert.Equal(t, 4.0, s.Max)
	assert.Contains(t, s.String(), "count")
}

func TestDescribe_Empty(t *testing.T) {
	s := Describe("x", []float64{math.NaN()})
	assert.Equal(t, 0, s.Count)
	assert.True(t, math.IsNaN(s.Mean))
	assert.True(t, math.IsNaN(s.Max))
}

func TestDescribe_Single(t *testing.T) {
	s := Describe("x", []float64{7})
	assert.Equal(t, 7.0, s.Mean)
	assert.True(t, math.IsNaN(s.Std))
	assert.Equal(t, 7.0, s.P75)
}
