// Package deepq implements the deep Q-learning algorithm with
// experience replay.
package deepq

import (
	"fmt"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/rltrader/agent"
	"github.com/samuelfneumann/rltrader/agent/nonlinear/discrete/policy"
	"github.com/samuelfneumann/rltrader/environment"
	"github.com/samuelfneumann/rltrader/expreplay"
	ts "github.com/samuelfneumann/rltrader/timestep"
	"github.com/samuelfneumann/rltrader/utils/floatutils"
)

// DeepQ implements the deep Q-learning algorithm using the MSE loss.
// Transitions are stored in an experience replay buffer, and each
// update fits the action-value function on a batch sampled uniformly
// from the buffer towards the update target:
//
//	r + γ * max_a' Q(s', a')	if s' is not terminal
//	r							otherwise
//
// only for the action taken in each sampled transition. All other
// action values in the batch are regressed towards their current
// predictions.
//
// No target network is used, the update target is computed with the
// same action-value function that is being learned.
//
// A DeepQ is not safe for concurrent use.
type DeepQ struct {
	// Action selection policies
	behaviourPolicy *policy.EGreedy // Decaying epsilon greedy policy
	targetPolicy    *policy.EGreedy // Policy used in evaluation mode

	q          agent.ActionValuer
	gamma      float64
	numActions int

	epsilonMin   float64
	epsilonDecay float64

	replay        *expreplay.Buffer
	batchSize     int
	gradientSteps int

	eval bool // Whether or not in evaluation mode
}

// New creates and returns a new DeepQ agent which learns the action
// values q in env.
func New(env environment.Environment, q agent.ActionValuer, c Config,
	seed uint64) (*DeepQ, error) {
	// Ensure environment has discrete actions
	if env.ActionSpec().Cardinality != environment.Discrete {
		return nil, fmt.Errorf("new: cannot use non-discrete actions")
	}

	// Ensure actions are one-dimensional
	if env.ActionSpec().LowerBound.Len() > 1 {
		return nil, fmt.Errorf("new: actions must be 1-dimensional")
	}

	// Ensure actions are enumerated from 0
	if env.ActionSpec().LowerBound.AtVec(0) != 0.0 {
		return nil, fmt.Errorf("new: actions must be enumerated " +
			"starting from 0")
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("new: %w", err)
	}

	rng := rand.New(rand.NewSource(seed))

	behaviourPolicy, err := policy.NewEGreedy(c.EpsilonStart, q, env,
		rng.Uint64())
	if err != nil {
		return nil, fmt.Errorf("new: could not create behaviour policy: %w",
			err)
	}
	targetPolicy, err := policy.NewEGreedy(c.EvalEpsilon, q, env,
		rng.Uint64())
	if err != nil {
		return nil, fmt.Errorf("new: could not create target policy: %w",
			err)
	}

	features := env.ObservationSpec().Features()
	replay, err := expreplay.New(c.BufferSize, features, rng.Uint64())
	if err != nil {
		return nil, fmt.Errorf("new: could not create experience replay "+
			"buffer: %w", err)
	}

	return &DeepQ{
		behaviourPolicy: behaviourPolicy,
		targetPolicy:    targetPolicy,
		q:               q,
		gamma:           c.Gamma,
		numActions:      env.ActionSpec().NumActions(),
		epsilonMin:      c.EpsilonMin,
		epsilonDecay:    c.EpsilonDecay,
		replay:          replay,
		batchSize:       c.BatchSize,
	}, nil
}

// SelectAction selects an action in the state obs using the behaviour
// policy in training mode and the target policy in evaluation mode.
func (d *DeepQ) SelectAction(obs *mat.VecDense) (int, error) {
	p := d.behaviourPolicy
	if d.eval {
		p = d.targetPolicy
	}
	return p.SelectAction(obs)
}

// Observe stores a transition in the experience replay buffer
func (d *DeepQ) Observe(t ts.Transition) error {
	if t.Action < 0 || t.Action >= d.numActions {
		return fmt.Errorf("observe: invalid action \n\twant([0, %v))"+
			"\n\thave(%v)", d.numActions, t.Action)
	}
	if err := d.replay.Add(t); err != nil {
		return fmt.Errorf("observe: %w", err)
	}
	return nil
}

// Step updates the action values using a batch of the configured
// batch size.
func (d *DeepQ) Step() error {
	return d.Learn(d.batchSize)
}

// Learn updates the action values using a batch of batchSize
// transitions sampled from the experience replay buffer, then decays
// epsilon. Nothing is done if the buffer holds fewer than batchSize
// transitions.
func (d *DeepQ) Learn(batchSize int) error {
	if batchSize < 1 {
		return fmt.Errorf("learn: batch size must be positive \n\thave(%v)",
			batchSize)
	}
	if d.replay.Len() < batchSize {
		return nil
	}

	batch, err := d.replay.Sample(batchSize)
	if err != nil {
		return fmt.Errorf("learn: %w", err)
	}

	nextValues, err := d.q.Predict(batch.NextStates, batchSize)
	if err != nil {
		return fmt.Errorf("learn: could not predict next state action "+
			"values: %w", err)
	}
	bootstrap := floatutils.RowMax(nextValues, d.numActions)

	// Only the action values of the actions taken are moved towards
	// the update target
	targets, err := d.q.Predict(batch.States, batchSize)
	if err != nil {
		return fmt.Errorf("learn: could not predict action values: %w", err)
	}
	for i := 0; i < batchSize; i++ {
		target := batch.Rewards[i]
		if !batch.Dones[i] {
			target += d.gamma * bootstrap[i]
		}
		targets[i*d.numActions+batch.Actions[i]] = target
	}

	if err := d.q.Fit(batch.States, targets, batchSize); err != nil {
		return fmt.Errorf("learn: %w", err)
	}
	d.gradientSteps++

	d.decayEpsilon()
	return nil
}

// decayEpsilon decays the behaviour policy's epsilon towards its
// minimum
func (d *DeepQ) decayEpsilon() {
	ε := d.behaviourPolicy.Epsilon()
	if ε > d.epsilonMin {
		ε *= d.epsilonDecay
		if ε < d.epsilonMin {
			ε = d.epsilonMin
		}
		d.behaviourPolicy.SetEpsilon(ε)
	}
}

// Epsilon returns the epsilon of the behaviour policy
func (d *DeepQ) Epsilon() float64 {
	return d.behaviourPolicy.Epsilon()
}

// SetEpsilon sets the epsilon of the behaviour policy
func (d *DeepQ) SetEpsilon(ε float64) {
	d.behaviourPolicy.SetEpsilon(ε)
}

// GradientSteps returns the number of updates made to the action
// values
func (d *DeepQ) GradientSteps() int {
	return d.gradientSteps
}

// ReplayLen returns the number of transitions in the experience replay
// buffer
func (d *DeepQ) ReplayLen() int {
	return d.replay.Len()
}

// Eval sets the agent into evaluation mode
func (d *DeepQ) Eval() {
	d.eval = true
}

// Train sets the agent into training mode
func (d *DeepQ) Train() {
	d.eval = false
}

// IsEval returns whether the agent is in evaluation mode
func (d *DeepQ) IsEval() bool {
	return d.eval
}
