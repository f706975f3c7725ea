package experiment

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/rltrader/environment/market"
	"github.com/samuelfneumann/rltrader/experiment/tracker"
	ts "github.com/samuelfneumann/rltrader/timestep"
)

// holder always holds, and records everything it is given
type holder struct {
	action      int
	eval        bool
	steps       int
	transitions []ts.Transition
}

func (h *holder) SelectAction(*mat.VecDense) (int, error) { return h.action, nil }
func (h *holder) Eval()                                   { h.eval = true }
func (h *holder) Train()                                  { h.eval = false }
func (h *holder) IsEval() bool                            { return h.eval }
func (h *holder) SetEpsilon(float64)                      {}
func (h *holder) Epsilon() float64                        { return 0.25 }

func (h *holder) Step() error {
	h.steps++
	return nil
}

func (h *holder) Observe(t ts.Transition) error {
	h.transitions = append(h.transitions, t)
	return nil
}

type identity struct{}

func (identity) Transform(obs mat.Vector) (*mat.VecDense, error) {
	return mat.VecDenseCopyOf(obs), nil
}

type recorder struct {
	episodes []tracker.Episode
	saved    bool
}

func (r *recorder) Track(ep tracker.Episode) error {
	r.episodes = append(r.episodes, ep)
	return nil
}

func (r *recorder) Save() error {
	r.saved = true
	return nil
}

type counter struct{ episodes []int }

func (c *counter) Checkpoint(ep tracker.Episode) error {
	c.episodes = append(c.episodes, ep.Number)
	return nil
}

func newMarket(t *testing.T) *market.MultiStock {
	t.Helper()
	m, _, err := market.New(mat.NewDense(4, 1, []float64{10, 12, 8, 9}), 100)
	require.NoError(t, err)
	return m
}

func TestParseMode(t *testing.T) {
	mode, err := ParseMode("train")
	require.NoError(t, err)
	assert.Equal(t, Train, mode)

	mode, err = ParseMode("test")
	require.NoError(t, err)
	assert.Equal(t, Test, mode)

	_, err = ParseMode("bogus")
	assert.Error(t, err)
}

func TestOnlineTrain(t *testing.T) {
	a := &holder{action: market.EncodeAction(market.Buy), eval: true}
	r := &recorder{}
	c := &counter{}

	o, err := NewOnline(newMarket(t), a, identity{}, Train, zerolog.Nop(),
		[]tracker.Tracker{r}, nil)
	require.NoError(t, err)
	assert.False(t, a.IsEval())
	o.checkpointers = append(o.checkpointers, c)

	values, err := o.Run(2)
	require.NoError(t, err)

	// 8 shares bought at 12 with 4 left over, worth 9 each on the last day
	require.Len(t, values, 2)
	assert.InDelta(t, 8*9+4.0, values[0], 1e-9)
	assert.Equal(t, values[0], values[1])

	// One transition and learning step per environment step
	require.Len(t, a.transitions, 6)
	assert.Equal(t, 6, a.steps)
	first := a.transitions[0]
	assert.Equal(t, []float64{0, 10, 100}, first.State.RawVector().Data)
	assert.Equal(t, []float64{8, 12, 4}, first.NextState.RawVector().Data)
	assert.False(t, first.Done)
	assert.True(t, a.transitions[2].Done)
	assert.Equal(t, a.transitions[0].NextState.RawVector().Data,
		a.transitions[1].State.RawVector().Data)

	require.Len(t, r.episodes, 2)
	assert.Equal(t, 1, r.episodes[0].Number)
	assert.Equal(t, 2, r.episodes[1].Number)
	assert.Equal(t, 3, r.episodes[0].Steps)
	assert.Equal(t, 0.25, r.episodes[0].Epsilon)
	assert.Equal(t, values[1], r.episodes[1].Value)
	assert.Equal(t, []int{1, 2}, c.episodes)

	require.NoError(t, o.Save())
	assert.True(t, r.saved)
}

func TestOnlineTest(t *testing.T) {
	a := &holder{action: market.EncodeAction(market.Hold)}
	r := &recorder{}
	c := &counter{}

	o, err := NewOnline(newMarket(t), a, identity{}, Test, zerolog.Nop(),
		nil, nil)
	require.NoError(t, err)
	o.Register(r)
	o.checkpointers = append(o.checkpointers, c)
	assert.True(t, a.IsEval())
	assert.Equal(t, Test, o.Mode())

	value, err := o.RunEpisode()
	require.NoError(t, err)
	assert.InDelta(t, 100.0, value, 1e-12)

	// Nothing is learned or checkpointed when testing
	_, err = o.Run(1)
	require.NoError(t, err)
	assert.Empty(t, a.transitions)
	assert.Zero(t, a.steps)
	assert.Empty(t, c.episodes)
	assert.Len(t, r.episodes, 1)
}

func TestOnlineInvalidAction(t *testing.T) {
	a := &holder{action: 3}
	o, err := NewOnline(newMarket(t), a, identity{}, Train, zerolog.Nop(),
		nil, nil)
	require.NoError(t, err)

	_, err = o.Run(1)
	assert.ErrorIs(t, err, market.ErrInvalidAction)

	_, err = NewOnline(newMarket(t), a, identity{}, Mode("bogus"),
		zerolog.Nop(), nil, nil)
	assert.Error(t, err)
}

func TestOnlineRunContext(t *testing.T) {
	a := &holder{action: market.EncodeAction(market.Hold)}
	r := &recorder{}
	o, err := NewOnline(newMarket(t), a, identity{}, Train, zerolog.Nop(),
		[]tracker.Tracker{r}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	values, err := o.RunContext(ctx, 5)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, values)
	assert.Empty(t, r.episodes)
}
