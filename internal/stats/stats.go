// Package stats computes the descriptive statistics and the crime/poverty
// correlation reported after a join.
package stats

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Matrix is a 2x2 Pearson correlation matrix between two named variables.
type Matrix struct {
	X     string        `json:"x" yaml:"x"`
	Y     string        `json:"y" yaml:"y"`
	Pairs int           `json:"pairs" yaml:"pairs"`
	R     [2][2]float64 `json:"-" yaml:"matrix"`
}

// Coefficient returns the off-diagonal correlation. NaN when undefined.
func (m Matrix) Coefficient() float64 {
	return m.R[0][1]
}

// String renders the matrix as a small table.
func (m Matrix) String() string {
	w := max(len(m.X), len(m.Y), 8)
	var b strings.Builder
	fmt.Fprintf(&b, "%*s %*s %*s\n", w, "", w, m.X, w, m.Y)
	fmt.Fprintf(&b, "%*s %*.6f %*.6f\n", w, m.X, w, m.R[0][0], w, m.R[0][1])
	fmt.Fprintf(&b, "%*s %*.6f %*.6f", w, m.Y, w, m.R[1][0], w, m.R[1][1])
	return b.String()
}

// Correlation computes the Pearson correlation of x and y over the pairs
// where both values are present. Fewer than two pairs or a constant
// variable gives a NaN coefficient rather than an error.
func Correlation(xName string, x []float64, yName string, y []float64) (Matrix, error) {
	m := Matrix{X: xName, Y: yName}
	if len(x) != len(y) {
		return m, eris.Errorf("stats: correlation inputs differ in length (%d vs %d)", len(x), len(y))
	}

	xs := make([]float64, 0, len(x))
	ys := make([]float64, 0, len(y))
	for i := range x {
		if math.IsNaN(x[i]) || math.IsNaN(y[i]) {
			continue
		}
		xs = append(xs, x[i])
		ys = append(ys, y[i])
	}
	m.Pairs = len(xs)

	r := math.NaN()
	if m.Pairs >= 2 && !constant(xs) && !constant(ys) {
		r = stat.Correlation(xs, ys, nil)
	}
	diag := 1.0
	if math.IsNaN(r) {
		diag = math.NaN()
	}
	m.R = [2][2]float64{{diag, r}, {r, diag}}
	return m, nil
}

func constant(v []float64) bool {
	for _, x := range v[1:] {
		if x != v[0] {
			return false
		}
	}
	return true
}

// Summary holds descriptive statistics of one variable.
type Summary struct {
	Name  string  `json:"name" yaml:"name"`
	Count int     `json:"count" yaml:"count"`
	Mean  float64 `json:"mean" yaml:"mean"`
	Std   float64 `json:"std" yaml:"std"`
	Min   float64 `json:"min" yaml:"min"`
	P25   float64 `json:"p25" yaml:"p25"`
	P50   float64 `json:"p50" yaml:"p50"`
	P75   float64 `json:"p75" yaml:"p75"`
	Max   float64 `json:"max" yaml:"max"`
}

// Describe summarizes the non-NaN values. Std is the sample standard
// deviation; quartiles interpolate linearly between order statistics.
func Describe(name string, values []float64) Summary {
	v := make([]float64, 0, len(values))
	for _, x := range values {
		if !math.IsNaN(x) {
			v = append(v, x)
		}
	}
	s := Summary{Name: name, Count: len(v)}
	nan := math.NaN()
	if len(v) == 0 {
		s.Mean, s.Std, s.Min, s.P25, s.P50, s.P75, s.Max = nan, nan, nan, nan, nan, nan, nan
		return s
	}
	sort.Float64s(v)

	s.Mean = stat.Mean(v, nil)
	s.Std = nan
	if len(v) > 1 {
		s.Std = stat.StdDev(v, nil)
	}
	s.Min = floats.Min(v)
	s.Max = floats.Max(v)
	s.P25 = quantile(v, 0.25)
	s.P50 = quantile(v, 0.50)
	s.P75 = quantile(v, 0.75)
	return s
}

// quantile interpolates linearly at rank p*(n-1) of sorted.
func quantile(sorted []float64, p float64) float64 {
	pos := p * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

// String renders the summary as name/value lines.
func (s Summary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", s.Name)
	fmt.Fprintf(&b, "count %12d\n", s.Count)
	for _, kv := range []struct {
		k string
		v float64
	}{
		{"mean", s.Mean}, {"std", s.Std}, {"min", s.Min},
		{"25%", s.P25}, {"50%", s.P50}, {"75%", s.P75}, {"max", s.Max},
	} {
		fmt.Fprintf(&b, "%-5s %12.6f\n", kv.k, kv.v)
	}
	return strings.TrimRight(b.String(), "\n")
}
