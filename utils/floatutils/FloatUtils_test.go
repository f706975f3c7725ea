package floatutils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestArgmaxFirstOnTies(t *testing.T) {
	assert.Equal(t, 0, Argmax([]float64{1}))
	assert.Equal(t, 1, Argmax([]float64{0, 3, 3, 2}))
	assert.Equal(t, 3, Argmax([]float64{-5, -4, -3, -1}))
}

func TestRowMax(t *testing.T) {
	values := []float64{
		1, 5, 2,
		-1, -2, -3,
	}
	assert.Equal(t, []float64{5, -1}, RowMax(values, 3))
}
