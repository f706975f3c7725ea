package checkpointer

import (
	"fmt"
	"path/filepath"

	"github.com/samuelfneumann/rltrader/agent"
	"github.com/samuelfneumann/rltrader/experiment/tracker"
)

// nEpisode implements checkpointing every N episodes
type nEpisode struct {
	interval int
	object   agent.Persister // Object to save

	// filename returns the filename of the file to save the object in
	// after the given episode. To save each checkpoint in a separate
	// file, use EpisodeFilename. To overwrite a single file, use
	// FixedFilename.
	filename func(episode int) string
}

// NewNEpisode returns a checkpointer that checkpoints every n episodes.
func NewNEpisode(n int, object agent.Persister,
	filename func(episode int) string) (Checkpointer, error) {
	if n < 1 {
		return nil, fmt.Errorf("newNEpisode: interval must be positive "+
			"\n\thave(%v)", n)
	}
	return &nEpisode{
		interval: n,
		object:   object,
		filename: filename,
	}, nil
}

// Checkpoint checkpoints the Checkpointer's tracked object by calling
// its Save() method
func (n *nEpisode) Checkpoint(ep tracker.Episode) error {
	if ep.Number%n.interval == 0 {
		if err := n.object.Save(n.filename(ep.Number)); err != nil {
			return fmt.Errorf("checkpoint: episode %v: %w", ep.Number, err)
		}
	}
	return nil
}

// EpisodeFilename returns a function which names files in dir after the
// episode they were saved at, for example dqn-000100.bin
func EpisodeFilename(dir, prefix, extension string) func(int) string {
	return func(episode int) string {
		return filepath.Join(dir, fmt.Sprintf("%v-%06d%v", prefix, episode,
			extension))
	}
}

// FixedFilename returns a function which always returns filename
func FixedFilename(filename string) func(int) string {
	return func(int) string {
		return filename
	}
}
