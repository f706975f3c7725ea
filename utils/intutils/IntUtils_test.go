package intutils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPow(t *testing.T) {
	assert.Equal(t, 1, Pow(3, 0))
	assert.Equal(t, 27, Pow(3, 3))
	assert.Equal(t, 1024, Pow(2, 10))
}
