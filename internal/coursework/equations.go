package coursework

import "github.com/roach88/tabula/internal/table"

// numerator is x³ + 2x² + 6x + 5, shared by both exam variants.
func numerator(x float64) float64 {
	return x*x*x + 2*x*x + 6*x + 5
}

// RationalA evaluates y = (x³+2x²+6x+5) / (x²+2x+1) at every x.
// x = -1 is 0/0 and yields NaN.
func RationalA(xs []float64) []float64 {
	return table.TransformEach(xs, func(x float64) float64 {
		return numerator(x) / (x*x + 2*x + 1)
	})
}

// RationalB evaluates y = (x³+2x²+6x+5) / (x³+2x²+1) at every x.
func RationalB(xs []float64) []float64 {
	return table.TransformEach(xs, func(x float64) float64 {
		return numerator(x) / (x*x*x + 2*x*x + 1)
	})
}
