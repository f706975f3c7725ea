package experiment

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/samuelfneumann/rltrader/agent"
	env "github.com/samuelfneumann/rltrader/environment"
	"github.com/samuelfneumann/rltrader/experiment/checkpointer"
	"github.com/samuelfneumann/rltrader/experiment/tracker"
	ts "github.com/samuelfneumann/rltrader/timestep"
)

// Online is an Experiment that runs an agent online. In Train mode the
// agent observes each transition and takes one learning step after it.
// In Test mode the agent is put into evaluation mode and only selects
// actions.
type Online struct {
	env.Environment
	agent.Agent
	scaler Scaler
	mode   Mode

	trackers      []tracker.Tracker
	checkpointers []checkpointer.Checkpointer

	episode int
	steps   int // Steps taken in the current episode
	logger  zerolog.Logger
}

// NewOnline creates and returns a new online experiment on a given
// environment with a given agent. Observations are transformed by
// scaler before being given to the agent.
func NewOnline(e env.Environment, a agent.Agent, scaler Scaler, mode Mode,
	logger zerolog.Logger, t []tracker.Tracker,
	c []checkpointer.Checkpointer) (*Online, error) {
	switch mode {
	case Train:
		a.Train()
	case Test:
		a.Eval()
	default:
		return nil, fmt.Errorf("newOnline: unknown mode %q", mode)
	}

	return &Online{
		Environment:   e,
		Agent:         a,
		scaler:        scaler,
		mode:          mode,
		trackers:      t,
		checkpointers: c,
		logger: logger.With().
			Str("component", "experiment").
			Str("mode", string(mode)).
			Logger(),
	}, nil
}

// Register registers a tracker.Tracker with an Experiment so that data
// generated during the experiment can be tracked and saved
func (o *Online) Register(t tracker.Tracker) {
	o.trackers = append(o.trackers, t)
}

// Mode returns the mode the experiment runs in
func (o *Online) Mode() Mode {
	return o.mode
}

// RunEpisode runs a single episode of the experiment and returns the
// portfolio value at the end of the episode
func (o *Online) RunEpisode() (float64, error) {
	o.steps = 0
	step := o.Environment.Reset()
	state, err := o.scaler.Transform(step.Observation)
	if err != nil {
		return 0, fmt.Errorf("runEpisode: %w", err)
	}

	var info env.Info
	for !step.Last() {
		// Select action, step in environment
		action, err := o.Agent.SelectAction(state)
		if err != nil {
			return 0, fmt.Errorf("runEpisode: step %v: %w", o.steps, err)
		}
		var nextStep ts.TimeStep
		nextStep, info, err = o.Environment.Step(action)
		if err != nil {
			return 0, fmt.Errorf("runEpisode: step %v: %w", o.steps, err)
		}
		o.steps++

		nextState, err := o.scaler.Transform(nextStep.Observation)
		if err != nil {
			return 0, fmt.Errorf("runEpisode: step %v: %w", o.steps, err)
		}

		// Observe the transition and step the agent
		if o.mode == Train {
			transition := ts.Transition{
				State:     state,
				Action:    action,
				Reward:    nextStep.Reward,
				NextState: nextState,
				Done:      nextStep.Last(),
			}
			if err := o.Agent.Observe(transition); err != nil {
				return 0, fmt.Errorf("runEpisode: step %v: %w", o.steps, err)
			}
			if err := o.Agent.Step(); err != nil {
				return 0, fmt.Errorf("runEpisode: step %v: %w", o.steps, err)
			}
		}

		state = nextState
		step = nextStep
	}

	return info.PortfolioValue, nil
}

// Run runs episodes of the experiment, returning the end of episode
// portfolio value of each. After each episode, the episode is tracked
// by each Tracker and each Checkpointer is given the chance to
// checkpoint.
func (o *Online) Run(episodes int) ([]float64, error) {
	return o.RunContext(context.Background(), episodes)
}

// RunContext is like Run but stops between episodes once ctx is done,
// returning the values of the finished episodes and the context's error.
func (o *Online) RunContext(ctx context.Context, episodes int) ([]float64,
	error) {
	values := make([]float64, 0, episodes)

	for i := 0; i < episodes; i++ {
		if err := ctx.Err(); err != nil {
			return values, fmt.Errorf("run: %w", err)
		}

		start := time.Now()
		value, err := o.RunEpisode()
		if err != nil {
			return values, fmt.Errorf("run: episode %v: %w", o.episode+1, err)
		}
		o.episode++
		values = append(values, value)

		ep := tracker.Episode{
			Number:   o.episode,
			Value:    value,
			Steps:    o.steps,
			Duration: time.Since(start),
			Epsilon:  o.epsilon(),
		}
		o.logger.Info().
			Int("episode", ep.Number).
			Int("episodes", episodes).
			Float64("value", ep.Value).
			Dur("duration", ep.Duration).
			Float64("epsilon", ep.Epsilon).
			Msg("episode finished")

		if err := o.track(ep); err != nil {
			return values, fmt.Errorf("run: %w", err)
		}
		if err := o.checkpoint(ep); err != nil {
			return values, fmt.Errorf("run: %w", err)
		}
	}

	return values, nil
}

// Save saves all the data cached by the Trackers to disk
func (o *Online) Save() error {
	for _, t := range o.trackers {
		if err := t.Save(); err != nil {
			return fmt.Errorf("save: %w", err)
		}
	}
	return nil
}

// track sends a finished episode to each tracker
func (o *Online) track(ep tracker.Episode) error {
	for _, t := range o.trackers {
		if err := t.Track(ep); err != nil {
			return err
		}
	}
	return nil
}

// checkpoint offers a finished episode to each checkpointer. Nothing is
// checkpointed outside of training.
func (o *Online) checkpoint(ep tracker.Episode) error {
	if o.mode != Train {
		return nil
	}
	for _, c := range o.checkpointers {
		if err := c.Checkpoint(ep); err != nil {
			return err
		}
	}
	return nil
}

// epsilon returns the exploration rate of the agent's behaviour policy
// if it explores epsilon greedily. Nothing is explored for learning
// when testing.
func (o *Online) epsilon() float64 {
	if o.mode != Train {
		return 0
	}
	if e, ok := o.Agent.(agent.EGreedy); ok {
		return e.Epsilon()
	}
	return 0
}
