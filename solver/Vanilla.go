package solver

import G "gorgonia.org/gorgonia"

// NewVanilla returns the configuration of a vanilla gradient descent
// Solver
func NewVanilla(stepSize, clip float64) Config {
	return Config{
		Type:     Vanilla,
		StepSize: stepSize,
		Clip:     clip,
	}
}

func vanilla(c Config) G.Solver {
	opts := []G.SolverOpt{G.WithLearnRate(c.StepSize)}
	if c.Clip > 0 {
		opts = append(opts, G.WithClip(c.Clip))
	}
	return G.NewVanillaSolver(opts...)
}
