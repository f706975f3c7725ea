// Package expreplay implements a fixed capacity experience replay
// buffer for discrete-action agents.
package expreplay

import (
	"fmt"

	"golang.org/x/exp/rand"

	"github.com/samuelfneumann/rltrader/timestep"
)

// Batch is a batch of transitions sampled from a Buffer. All fields are
// index-aligned: row i of States, Actions[i], Rewards[i], row i of
// NextStates, and Dones[i] all belong to the same transition. States and
// NextStates are stored in row major order with Features columns.
//
// A Batch owns its data. Modifying a Batch never modifies the Buffer it
// was sampled from.
type Batch struct {
	States     []float64
	Actions    []int
	Rewards    []float64
	NextStates []float64
	Dones      []bool

	Size     int
	Features int
}

// State returns row i of the state batch
func (b Batch) State(i int) []float64 {
	return b.States[i*b.Features : (i+1)*b.Features]
}

// NextState returns row i of the next state batch
func (b Batch) NextState(i int) []float64 {
	return b.NextStates[i*b.Features : (i+1)*b.Features]
}

// Buffer implements a circular experience replay buffer. Transitions are
// written at a cursor which wraps around once the buffer is full, so that
// the oldest transition is always the one overwritten. Batches are drawn
// uniformly with replacement from the transitions currently held.
//
// A Buffer is not safe for concurrent use.
type Buffer struct {
	stateCache     []float64
	actionCache    []int
	rewardCache    []float64
	nextStateCache []float64
	doneCache      []bool

	ptr  int // Index of the next slot to write
	size int // Number of valid transitions in the buffer

	maxCapacity int
	featureSize int

	rng *rand.Rand
}

// New creates and returns a new Buffer which holds at most maxCapacity
// transitions of featureSize-dimensional observations. The seed
// determines the sequence of indices drawn when sampling.
func New(maxCapacity, featureSize int, seed uint64) (*Buffer, error) {
	if maxCapacity < 1 {
		return nil, fmt.Errorf("new: maxCapacity must be >= 1 \n\thave(%v)",
			maxCapacity)
	}
	if featureSize < 1 {
		return nil, fmt.Errorf("new: featureSize must be >= 1 \n\thave(%v)",
			featureSize)
	}

	return &Buffer{
		stateCache:     make([]float64, maxCapacity*featureSize),
		actionCache:    make([]int, maxCapacity),
		rewardCache:    make([]float64, maxCapacity),
		nextStateCache: make([]float64, maxCapacity*featureSize),
		doneCache:      make([]bool, maxCapacity),

		maxCapacity: maxCapacity,
		featureSize: featureSize,

		rng: rand.New(rand.NewSource(seed)),
	}, nil
}

// Add adds a transition to the buffer, overwriting the oldest
// transition if the buffer is full. Add only fails if the transition's
// observations do not have the feature size of the buffer.
func (b *Buffer) Add(t timestep.Transition) error {
	if t.State.Len() != b.featureSize || t.NextState.Len() != b.featureSize {
		return &ExpReplayError{
			Op: "add",
			Err: fmt.Errorf("%w \n\twant(%v)\n\thave(%v, %v)", ErrFeatureSize,
				b.featureSize, t.State.Len(), t.NextState.Len()),
		}
	}

	index := b.ptr
	stateInd := index * b.featureSize
	for i := 0; i < b.featureSize; i++ {
		b.stateCache[stateInd+i] = t.State.AtVec(i)
		b.nextStateCache[stateInd+i] = t.NextState.AtVec(i)
	}
	b.actionCache[index] = t.Action
	b.rewardCache[index] = t.Reward
	b.doneCache[index] = t.Done

	b.ptr = (b.ptr + 1) % b.maxCapacity
	if b.size < b.maxCapacity {
		b.size++
	}
	return nil
}

// Sample samples and returns a batch of batchSize transitions, drawn
// uniformly with replacement. Duplicate transitions in a batch are
// expected, especially when Len() < batchSize.
func (b *Buffer) Sample(batchSize int) (Batch, error) {
	if b.size == 0 {
		return Batch{}, &ExpReplayError{Op: "sample", Err: ErrEmptyBuffer}
	}
	if batchSize < 1 {
		return Batch{}, &ExpReplayError{
			Op:  "sample",
			Err: fmt.Errorf("batch size must be >= 1 \n\thave(%v)", batchSize),
		}
	}

	batch := Batch{
		States:     make([]float64, batchSize*b.featureSize),
		Actions:    make([]int, batchSize),
		Rewards:    make([]float64, batchSize),
		NextStates: make([]float64, batchSize*b.featureSize),
		Dones:      make([]bool, batchSize),
		Size:       batchSize,
		Features:   b.featureSize,
	}

	for i := 0; i < batchSize; i++ {
		index := b.rng.Intn(b.size)

		batchStartInd := i * b.featureSize
		expStartInd := index * b.featureSize
		copy(batch.States[batchStartInd:batchStartInd+b.featureSize],
			b.stateCache[expStartInd:expStartInd+b.featureSize])
		copy(batch.NextStates[batchStartInd:batchStartInd+b.featureSize],
			b.nextStateCache[expStartInd:expStartInd+b.featureSize])

		batch.Actions[i] = b.actionCache[index]
		batch.Rewards[i] = b.rewardCache[index]
		batch.Dones[i] = b.doneCache[index]
	}

	return batch, nil
}

// Len returns the current number of transitions in the buffer that
// are available for sampling
func (b *Buffer) Len() int {
	return b.size
}

// MaxCapacity returns the maximum number of transitions that are allowed
// in the buffer
func (b *Buffer) MaxCapacity() int {
	return b.maxCapacity
}

// FeatureSize returns the dimension of observations stored in the buffer
func (b *Buffer) FeatureSize() int {
	return b.featureSize
}

// String returns the string representation of the buffer
func (b *Buffer) String() string {
	baseStr := "Size: %v/%v \nCursor: %v \nStates: %v \nActions: %v " +
		"\nRewards: %v \nNext States: %v \nDones: %v"
	return fmt.Sprintf(baseStr, b.size, b.maxCapacity, b.ptr, b.stateCache,
		b.actionCache, b.rewardCache, b.nextStateCache, b.doneCache)
}
