// Package initwfn implements functionality to describe Gorgonia InitWFn
// in configuration files.
package initwfn

import (
	"fmt"

	G "gorgonia.org/gorgonia"
)

// Type describes different types of InitWFn that are available
type Type string

// Available InitWFn types
const (
	GlorotU  Type = "GlorotU"
	GlorotN  Type = "GlorotN"
	HeU      Type = "HeU"
	HeN      Type = "HeN"
	Uniform  Type = "Uniform"
	Gaussian Type = "Gaussian"
	Zeroes   Type = "Zeroes"
	Ones     Type = "Ones"
	Constant Type = "Constant"
)

// Config describes a Gorgonia weight initializer. Only the fields used
// by the initializer of the given Type are read.
type Config struct {
	Type Type `yaml:"type"`

	Gain   float64 `yaml:"gain,omitempty"`   // Glorot and He
	Low    float64 `yaml:"low,omitempty"`    // Uniform
	High   float64 `yaml:"high,omitempty"`   // Uniform
	Mean   float64 `yaml:"mean,omitempty"`   // Gaussian
	StdDev float64 `yaml:"stddev,omitempty"` // Gaussian
	Value  float64 `yaml:"value,omitempty"`  // Constant
}

// Validate checks that the Config describes a weight initializer that
// can be created
func (c Config) Validate() error {
	switch c.Type {
	case GlorotU, GlorotN, HeU, HeN:
		if c.Gain <= 0 {
			return fmt.Errorf("validate: %v gain must be positive "+
				"\n\thave(%v)", c.Type, c.Gain)
		}
	case Uniform:
		if c.Low >= c.High {
			return fmt.Errorf("validate: uniform low must be less than "+
				"high \n\thave(%v, %v)", c.Low, c.High)
		}
	case Gaussian:
		if c.StdDev <= 0 {
			return fmt.Errorf("validate: gaussian standard deviation "+
				"must be positive \n\thave(%v)", c.StdDev)
		}
	case Zeroes, Ones, Constant:
	default:
		return fmt.Errorf("validate: unknown initializer type %q", c.Type)
	}
	return nil
}

// Create returns the Gorgonia InitWFn that the Config describes
func (c Config) Create() (G.InitWFn, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("create: %w", err)
	}

	switch c.Type {
	case GlorotU, GlorotN:
		return glorot(c), nil
	case HeU, HeN:
		return he(c), nil
	case Uniform:
		return G.Uniform(c.Low, c.High), nil
	case Gaussian:
		return G.Gaussian(c.Mean, c.StdDev), nil
	default:
		return constant(c), nil
	}
}

// String implements the fmt.Stringer interface
func (c Config) String() string {
	return fmt.Sprintf("{%v InitWFn}", c.Type)
}
