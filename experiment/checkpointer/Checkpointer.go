// Package checkpointer implements Checkpointers, which save objects
// such as learned weights during an experiment
package checkpointer

import (
	"github.com/samuelfneumann/rltrader/experiment/tracker"
)

// Checkpointer checkpoints/saves objects based on finished episodes
type Checkpointer interface {
	Checkpoint(tracker.Episode) error
}
