package scaler

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/rltrader/environment"
)

// Collect resets env and runs a single episode taking actions drawn from
// actions, returning the observation after each step as the rows of a
// matrix. The returned observations are suitable for fitting a scaler.
func Collect(env environment.Environment,
	actions *environment.UniformActions) (*mat.Dense, error) {
	step := env.Reset()
	features := env.ObservationSpec().Features()

	var data []float64
	rows := 0
	for !step.Last() {
		var err error
		step, _, err = env.Step(actions.Sample())
		if err != nil {
			return nil, fmt.Errorf("collect: %w", err)
		}

		if step.Observation.Len() != features {
			return nil, fmt.Errorf("collect: invalid observation size "+
				"\n\twant(%v)\n\thave(%v)", features, step.Observation.Len())
		}
		data = append(data, mat.Col(nil, 0, step.Observation)...)
		rows++
	}

	if rows == 0 {
		return nil, fmt.Errorf("collect: episode ended without any steps")
	}
	return mat.NewDense(rows, features, data), nil
}

// FitEnvironment fits a new Standard scaler on the observations of a
// single random episode in env, see Collect
func FitEnvironment(env environment.Environment,
	actions *environment.UniformActions) (*Standard, error) {
	obs, err := Collect(env, actions)
	if err != nil {
		return nil, fmt.Errorf("fitEnvironment: %w", err)
	}

	s := NewStandard()
	if err := s.Fit(obs); err != nil {
		return nil, fmt.Errorf("fitEnvironment: %w", err)
	}
	return s, nil
}
