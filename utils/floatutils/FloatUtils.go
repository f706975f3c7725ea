// Package floatutils provides utilities for working with floats
package floatutils

import (
	"gonum.org/v1/gonum/floats"
)

// Argmax returns the index of the maximum value in a slice of float64.
// Ties are broken by returning the first index at which the maximum
// occurs. Argmax panics on an empty slice.
func Argmax(values []float64) int {
	return floats.MaxIdx(values)
}

// RowMax returns the maximum of each row of a row-major matrix with
// the given number of columns.
func RowMax(values []float64, cols int) []float64 {
	rows := len(values) / cols
	out := make([]float64, rows)
	for i := 0; i < rows; i++ {
		out[i] = floats.Max(values[i*cols : (i+1)*cols])
	}
	return out
}
