package solver

import G "gorgonia.org/gorgonia"

// NewDefaultAdam returns the configuration of an Adam Solver with
// default hyperparameters
func NewDefaultAdam(stepSize float64) Config {
	return NewAdam(stepSize, 1e-7, 0.9, 0.999)
}

// NewAdam returns the configuration of an Adam Solver
func NewAdam(stepSize, epsilon, beta1, beta2 float64) Config {
	return Config{
		Type:     Adam,
		StepSize: stepSize,
		Epsilon:  epsilon,
		Beta1:    beta1,
		Beta2:    beta2,
	}
}

func adam(c Config) G.Solver {
	opts := []G.SolverOpt{
		G.WithLearnRate(c.StepSize),
		G.WithEps(c.Epsilon),
		G.WithBeta1(c.Beta1),
		G.WithBeta2(c.Beta2),
	}
	if c.Clip > 0 {
		opts = append(opts, G.WithClip(c.Clip))
	}
	return G.NewAdamSolver(opts...)
}
