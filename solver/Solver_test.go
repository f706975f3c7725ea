package solver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	G "gorgonia.org/gorgonia"
	"gopkg.in/yaml.v3"
)

func TestCreate(t *testing.T) {
	s, err := NewDefaultAdam(0.001).Create()
	require.NoError(t, err)
	assert.IsType(t, &G.AdamSolver{}, s)

	s, err = NewVanilla(0.01, 1.0).Create()
	require.NoError(t, err)
	assert.IsType(t, &G.VanillaSolver{}, s)

	s, err = NewDefaultRMSProp(0.01).Create()
	require.NoError(t, err)
	assert.IsType(t, &G.RMSPropSolver{}, s)
}

func TestValidate(t *testing.T) {
	invalid := []Config{
		NewDefaultAdam(0),
		NewAdam(0.1, 1e-8, 1.0, 0.999),
		NewAdam(0.1, 0, 0.9, 0.999),
		NewRMSProp(0.1, 1e-8, 1.0, -1),
		NewVanilla(-0.1, 0),
		{Type: "SGD", StepSize: 0.1},
	}
	for _, c := range invalid {
		assert.Error(t, c.Validate(), "%v", c)
		_, err := c.Create()
		assert.Error(t, err)
	}
}

func TestUnmarshalYAML(t *testing.T) {
	data := []byte(`
type: Adam
step_size: 0.001
epsilon: 1.0e-7
beta1: 0.9
beta2: 0.999
`)
	var c Config
	require.NoError(t, yaml.Unmarshal(data, &c))
	assert.Equal(t, NewDefaultAdam(0.001), c)
}
