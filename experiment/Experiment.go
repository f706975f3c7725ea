// Package experiment implements functionality for running an experiment
package experiment

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/rltrader/experiment/tracker"
)

// Interface Experiment outlines structs that can run experiments.
// The Run() method runs a number of episodes and the RunEpisode()
// method runs a single episode, each returning the portfolio value at
// the end of each episode run.
//
// In order to save data, Experiments use Trackers. Experiments send a
// summary of each finished episode to Trackers using the Tracker's
// Track() method, and the Save() method saves the data of all Trackers.
type Experiment interface {
	Run(episodes int) ([]float64, error)
	RunEpisode() (float64, error)

	// Save all tracked data to disk
	Save() error

	// Adds a new tracker.Tracker to the (possibly already running)
	// experiment.
	Register(t tracker.Tracker)
}

// Mode determines whether an experiment learns or only evaluates
type Mode string

const (
	Train Mode = "train"
	Test  Mode = "test"
)

// ParseMode returns the Mode named by s
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case Train, Test:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("parseMode: mode must be %q or %q \n\thave(%q)",
			Train, Test, s)
	}
}

// Scaler transforms raw environment observations into the features
// seen by an agent
type Scaler interface {
	Transform(obs mat.Vector) (*mat.VecDense, error)
}
