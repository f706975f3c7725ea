// Package policy implements policies which select actions using
// function approximation of action values.
package policy

import (
	"fmt"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/rltrader/agent"
	env "github.com/samuelfneumann/rltrader/environment"
	"github.com/samuelfneumann/rltrader/utils/floatutils"
)

// EGreedy implements an epsilon greedy policy over the action values
// predicted by an agent.ActionValuer. Given an environment with N
// actions, the ActionValuer predicts N values for each state, one for
// each action.
//
// With probability epsilon, an action is selected uniformly at random.
// Otherwise, the action of maximum value is selected, breaking ties in
// favour of the lowest action index.
//
// An EGreedy is not safe for concurrent use.
type EGreedy struct {
	q          agent.ActionValuer
	epsilon    float64
	numActions int
	features   int

	rng *rand.Rand
}

// NewEGreedy creates and returns a new EGreedy policy selecting actions
// in env using the action values predicted by q
func NewEGreedy(epsilon float64, q agent.ActionValuer, env env.Environment,
	seed uint64) (*EGreedy, error) {
	if epsilon < 0 || epsilon > 1 {
		return nil, fmt.Errorf("newEGreedy: epsilon must be in [0, 1] "+
			"\n\thave(%v)", epsilon)
	}

	return &EGreedy{
		q:          q,
		epsilon:    epsilon,
		numActions: env.ActionSpec().NumActions(),
		features:   env.ObservationSpec().Features(),
		rng:        rand.New(rand.NewSource(seed)),
	}, nil
}

// SetEpsilon sets the value for epsilon in the epsilon greedy policy.
func (e *EGreedy) SetEpsilon(ε float64) {
	e.epsilon = ε
}

// Epsilon gets the value of epsilon for the policy.
func (e *EGreedy) Epsilon() float64 {
	return e.epsilon
}

// ActionValues returns the predicted value of each action in the
// state obs
func (e *EGreedy) ActionValues(obs mat.Vector) ([]float64, error) {
	if obs.Len() != e.features {
		return nil, fmt.Errorf("actionValues: invalid observation size "+
			"\n\twant(%v)\n\thave(%v)", e.features, obs.Len())
	}

	values, err := e.q.Predict(mat.Col(nil, 0, obs), 1)
	if err != nil {
		return nil, fmt.Errorf("actionValues: %w", err)
	}
	if len(values) != e.numActions {
		return nil, fmt.Errorf("actionValues: invalid number of action "+
			"values \n\twant(%v)\n\thave(%v)", e.numActions, len(values))
	}
	return values, nil
}

// SelectAction selects an action in the state obs
func (e *EGreedy) SelectAction(obs mat.Vector) (int, error) {
	// With probability epsilon return a random action
	if probability := e.rng.Float64(); probability < e.epsilon {
		return e.rng.Intn(e.numActions), nil
	}

	actionValues, err := e.ActionValues(obs)
	if err != nil {
		return 0, fmt.Errorf("selectAction: %w", err)
	}
	return floatutils.Argmax(actionValues), nil
}
