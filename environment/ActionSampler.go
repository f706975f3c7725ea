package environment

import (
	"fmt"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// UniformActions samples actions uniformly from a discrete action
// Spec. Actions are sampled from (0, 1, 2, ... N-1) where N is the
// number of actions in the Spec.
type UniformActions struct {
	numActions int
	rand       distuv.Categorical
}

// NewUniformActions returns a new UniformActions sampling from the
// actions of the argument action Spec
func NewUniformActions(actionSpec Spec, seed uint64) (*UniformActions, error) {
	if actionSpec.Cardinality != Discrete {
		return nil, fmt.Errorf("newUniformActions: cannot sample " +
			"non-discrete actions")
	}
	numActions := actionSpec.NumActions()
	if numActions < 1 {
		return nil, fmt.Errorf("newUniformActions: need at least one "+
			"action \n\thave(%v)", numActions)
	}

	// Create the weights for the uniform categorical distribution
	weights := make([]float64, numActions)
	for j := range weights {
		weights[j] = 1.0 / float64(len(weights))
	}
	source := rand.NewSource(seed)

	return &UniformActions{
		numActions: numActions,
		rand:       distuv.NewCategorical(weights, source),
	}, nil
}

// Sample returns a uniformly random action
func (u *UniformActions) Sample() int {
	return int(u.rand.Rand())
}
