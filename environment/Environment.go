// Package environment outlines the interfaces and structs needed to
// implement concrete environments
package environment

import (
	"github.com/samuelfneumann/rltrader/timestep"
)

// Info packages auxiliary data returned by an environment step that is
// not part of the observation, such as the mark-to-market value of the
// portfolio after the step.
type Info struct {
	PortfolioValue float64
}

// Environment implements a simulated environment with discrete,
// integer-enumerated actions.
//
// Reset starts a new episode and returns its first TimeStep. Step takes
// an action, which must be within the bounds of ActionSpec, and returns
// the resulting TimeStep. When the returned TimeStep is Last, the episode
// is over and Reset must be called before stepping again.
type Environment interface {
	Reset() timestep.TimeStep
	Step(action int) (timestep.TimeStep, Info, error)
	ObservationSpec() Spec
	ActionSpec() Spec
}
