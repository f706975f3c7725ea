package network

import (
	"fmt"

	"github.com/samuelfneumann/rltrader/initwfn"
	"github.com/samuelfneumann/rltrader/solver"
)

// Config describes the hidden layers of an MLP along with how its
// weights are initialized and learned. A final linear layer with one
// unit per output is always added after the hidden layers.
type Config struct {
	HiddenSizes []int          `yaml:"hidden_sizes"`
	Activations []*Activation  `yaml:"activations"`
	InitWFn     initwfn.Config `yaml:"init"`
	Solver      solver.Config  `yaml:"solver"`
}

// Validate checks that the Config describes a network that can be
// constructed
func (c Config) Validate() error {
	if len(c.HiddenSizes) != len(c.Activations) {
		return fmt.Errorf("validate: invalid number of activations"+
			"\n\twant(%d)\n\thave(%d)", len(c.HiddenSizes),
			len(c.Activations))
	}
	for i, size := range c.HiddenSizes {
		if size < 1 {
			return fmt.Errorf("validate: hidden layer %v must have "+
				"positive size \n\thave(%v)", i, size)
		}
		if c.Activations[i] == nil {
			return fmt.Errorf("validate: hidden layer %v has no "+
				"activation", i)
		}
	}
	if err := c.InitWFn.Validate(); err != nil {
		return fmt.Errorf("validate: %w", err)
	}
	if err := c.Solver.Validate(); err != nil {
		return fmt.Errorf("validate: %w", err)
	}
	return nil
}
