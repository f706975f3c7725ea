// Package solver implements functionality to describe Gorgonia Solvers
// in configuration files.
package solver

import (
	"fmt"

	G "gorgonia.org/gorgonia"
)

// Type describes different types of solvers that are available
type Type string

// Available solver types
const (
	Adam    Type = "Adam"
	Vanilla Type = "Vanilla"
	RMSProp Type = "RMSProp"
)

// Config describes a Gorgonia Solver. Only the fields used by the
// solver of the given Type are read.
type Config struct {
	Type     Type    `yaml:"type"`
	StepSize float64 `yaml:"step_size"`
	Epsilon  float64 `yaml:"epsilon,omitempty"` // Adam and RMSProp smoothing
	Beta1    float64 `yaml:"beta1,omitempty"`
	Beta2    float64 `yaml:"beta2,omitempty"`
	Rho      float64 `yaml:"rho,omitempty"`
	Clip     float64 `yaml:"clip,omitempty"` // <= 0 if no clipping
}

// Validate checks that the Config describes a Solver that can be
// created
func (c Config) Validate() error {
	if c.StepSize <= 0 {
		return fmt.Errorf("validate: step size must be positive "+
			"\n\thave(%v)", c.StepSize)
	}

	switch c.Type {
	case Adam:
		if c.Beta1 < 0 || c.Beta1 >= 1 || c.Beta2 < 0 || c.Beta2 >= 1 {
			return fmt.Errorf("validate: adam betas must be in [0, 1) "+
				"\n\thave(%v, %v)", c.Beta1, c.Beta2)
		}
		if c.Epsilon <= 0 {
			return fmt.Errorf("validate: adam epsilon must be positive "+
				"\n\thave(%v)", c.Epsilon)
		}
	case RMSProp:
		if c.Rho <= 0 || c.Rho >= 1 {
			return fmt.Errorf("validate: rmsprop rho must be in (0, 1) "+
				"\n\thave(%v)", c.Rho)
		}
		if c.Epsilon <= 0 {
			return fmt.Errorf("validate: rmsprop epsilon must be "+
				"positive \n\thave(%v)", c.Epsilon)
		}
	case Vanilla:
	default:
		return fmt.Errorf("validate: unknown solver type %q", c.Type)
	}
	return nil
}

// Create returns a new Gorgonia Solver as described by the Config
func (c Config) Create() (G.Solver, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("create: %w", err)
	}

	switch c.Type {
	case Adam:
		return adam(c), nil
	case RMSProp:
		return rmsprop(c), nil
	default:
		return vanilla(c), nil
	}
}

// String implements the fmt.Stringer interface
func (c Config) String() string {
	return fmt.Sprintf("{%v Solver: step size %v}", c.Type, c.StepSize)
}
