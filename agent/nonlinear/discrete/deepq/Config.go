package deepq

import (
	"fmt"
)

// Config implements a configuration for a DeepQ agent
type Config struct {
	Gamma float64 `yaml:"gamma"` // Discount factor

	// Behaviour policy exploration. Epsilon decays multiplicatively by
	// EpsilonDecay after each update until it reaches EpsilonMin.
	EpsilonStart float64 `yaml:"epsilon_start"`
	EpsilonMin   float64 `yaml:"epsilon_min"`
	EpsilonDecay float64 `yaml:"epsilon_decay"`

	// Exploration used in evaluation mode
	EvalEpsilon float64 `yaml:"eval_epsilon"`

	// Experience replay parameters
	BufferSize int `yaml:"buffer_size"`
	BatchSize  int `yaml:"batch_size"`
}

// DefaultConfig returns the default configuration of a DeepQ agent
func DefaultConfig() Config {
	return Config{
		Gamma:        0.95,
		EpsilonStart: 1.0,
		EpsilonMin:   0.01,
		EpsilonDecay: 0.995,
		EvalEpsilon:  0.01,
		BufferSize:   500,
		BatchSize:    32,
	}
}

// Validate checks a Config to ensure it is a valid configuration of a
// DeepQ agent.
func (c Config) Validate() error {
	if c.Gamma < 0 || c.Gamma > 1 {
		return fmt.Errorf("validate: gamma must be in [0, 1] \n\thave(%v)",
			c.Gamma)
	}

	for name, eps := range map[string]float64{
		"epsilon_start": c.EpsilonStart,
		"epsilon_min":   c.EpsilonMin,
		"eval_epsilon":  c.EvalEpsilon,
	} {
		if eps < 0 || eps > 1 {
			return fmt.Errorf("validate: %v must be in [0, 1] \n\thave(%v)",
				name, eps)
		}
	}
	if c.EpsilonMin > c.EpsilonStart {
		return fmt.Errorf("validate: epsilon_min must not exceed "+
			"epsilon_start \n\thave(%v > %v)", c.EpsilonMin, c.EpsilonStart)
	}
	if c.EpsilonDecay <= 0 || c.EpsilonDecay > 1 {
		return fmt.Errorf("validate: epsilon_decay must be in (0, 1] "+
			"\n\thave(%v)", c.EpsilonDecay)
	}

	if c.BufferSize < 1 {
		return fmt.Errorf("validate: buffer_size must be positive "+
			"\n\thave(%v)", c.BufferSize)
	}
	if c.BatchSize < 1 {
		return fmt.Errorf("validate: batch_size must be positive "+
			"\n\thave(%v)", c.BatchSize)
	}
	return nil
}
