// Package agent defines an agent interface
package agent

import (
	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/rltrader/timestep"
)

// Agent determines the implementation details of an agent or algorithm
//
// An Agent is composed of a Learner, which learns weights, and a Policy
// which chooses actions in each state. The Policy chooses which actions
// are taken, and the Learner uses these actions to update the Policy.
type Agent interface {
	Learner
	Policy
}

// Learner implements a learning algorithm that defines how weights are
// updated.
type Learner interface {
	// Step performs a single update to the learner
	Step() error

	// Observe records a transition generated by the Policy
	Observe(t timestep.Transition) error
}

// Policy represents a policy that an agent can have.
//
// Policies determine how agents select actions in discrete action
// environments, where actions are the integers [0, N).
type Policy interface {
	SelectAction(obs *mat.VecDense) (int, error)
	Eval()        // Set policy to evaluation mode
	Train()       // Set policy to training mode
	IsEval() bool // Indicates if in evaluation mode
}

// EGreedy is an Agent which explores with an epsilon greedy policy
type EGreedy interface {
	Agent
	SetEpsilon(float64)
	Epsilon() float64
}

// ActionValuer approximates the value of each action in a batch of
// states. States are given in row major order, one state per row, and
// action values are returned in row major order, one row of values per
// state.
type ActionValuer interface {
	// Predict returns the action values of batch states
	Predict(states []float64, batch int) ([]float64, error)

	// Fit moves the action values of batch states towards targets
	Fit(states, targets []float64, batch int) error
}

// Persister is anything that can save itself to a file and load itself
// back, such as the weights of an ActionValuer
type Persister interface {
	Save(filename string) error
	Load(filename string) error
}
