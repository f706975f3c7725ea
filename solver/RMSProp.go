package solver

import G "gorgonia.org/gorgonia"

// NewDefaultRMSProp returns the configuration of an RMSProp Solver
// with default hyperparameters
func NewDefaultRMSProp(stepSize float64) Config {
	return NewRMSProp(stepSize, 1e-8, 0.999, -1.0)
}

// NewRMSProp returns the configuration of an RMSProp Solver
func NewRMSProp(stepSize, epsilon, rho, clip float64) Config {
	return Config{
		Type:     RMSProp,
		StepSize: stepSize,
		Epsilon:  epsilon,
		Rho:      rho,
		Clip:     clip,
	}
}

func rmsprop(c Config) G.Solver {
	opts := []G.SolverOpt{
		G.WithLearnRate(c.StepSize),
		G.WithEps(c.Epsilon),
		G.WithRho(c.Rho),
	}
	if c.Clip > 0 {
		opts = append(opts, G.WithClip(c.Clip))
	}
	return G.NewRMSPropSolver(opts...)
}
