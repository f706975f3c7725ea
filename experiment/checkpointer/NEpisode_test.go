package checkpointer

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samuelfneumann/rltrader/experiment/tracker"
)

type saves struct {
	filenames []string
	err       error
}

func (s *saves) Save(filename string) error {
	s.filenames = append(s.filenames, filename)
	return s.err
}

func (s *saves) Load(filename string) error {
	return nil
}

func TestNEpisode(t *testing.T) {
	s := &saves{}
	c, err := NewNEpisode(3, s, EpisodeFilename("models", "dqn", ".bin"))
	require.NoError(t, err)

	for i := 1; i <= 7; i++ {
		require.NoError(t, c.Checkpoint(tracker.Episode{Number: i}))
	}
	assert.Equal(t, []string{
		filepath.Join("models", "dqn-000003.bin"),
		filepath.Join("models", "dqn-000006.bin"),
	}, s.filenames)
}

func TestNEpisodeErrors(t *testing.T) {
	_, err := NewNEpisode(0, &saves{}, FixedFilename("dqn.bin"))
	assert.Error(t, err)

	failure := errors.New("disk full")
	s := &saves{err: failure}
	c, err := NewNEpisode(1, s, FixedFilename("dqn.bin"))
	require.NoError(t, err)

	err = c.Checkpoint(tracker.Episode{Number: 1})
	assert.True(t, errors.Is(err, failure))
	assert.Equal(t, []string{"dqn.bin"}, s.filenames)
}
