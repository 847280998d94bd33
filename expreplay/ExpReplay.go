// Package expreplay implements a bounded experience replay buffer
package expreplay

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/trafficrl/timestep"
)

// Config implements a specific configuration of an ExperienceReplayer
type Config struct {
	SampleMethod      SelectorType
	MaxReplayCapacity int
}

// Create creates and returns the ExperienceReplayer with the specified
// Config.
func (c Config) Create(featureSize int, seed uint64) (ExperienceReplayer,
	error) {
	sampler, err := CreateSelector(c.SampleMethod, seed)
	if err != nil {
		return nil, fmt.Errorf("create: %w", err)
	}
	return New(sampler, c.MaxReplayCapacity, featureSize)
}

// ExperienceReplayer implements an experience replay buffer
type ExperienceReplayer interface {
	// Add adds a transition to the buffer, evicting the oldest
	// transition if the buffer is full
	Add(t timestep.Transition) error

	// Sample samples a batch of experience from the buffer and returns
	// the batch as index-aligned states, actions, rewards, next states,
	// and done flags. States are returned in row major order.
	Sample(batchSize int) ([]float64, []int, []float64, []float64, []bool,
		error)

	// Len returns the current number of transitions in the buffer
	Len() int

	// MaxCapacity returns the maximum allowable transitions in the
	// buffer
	MaxCapacity() int

	// FeatureSize returns the length of the state vectors stored
	FeatureSize() int

	// Transitions returns copies of the stored transitions, oldest
	// first
	Transitions() []timestep.Transition
}

// cache implements a concrete ExperienceReplayer as a ring buffer
// over flat caches. Slot next is the next to be written; once the
// cache is full, it also holds the oldest transition.
type cache struct {
	stateCache     []float64
	actionCache    []int
	rewardCache    []float64
	doneCache      []bool
	nextStateCache []float64

	next int
	size int

	// Outlines how data is sampled
	sampler Selector

	maxCapacity int
	featureSize int
}

// New creates and returns a new ExperienceReplayer. The sampler
// determines how batches are drawn from the buffer. The featureSize
// parameter defines the size of state vectors.
func New(sampler Selector, maxCapacity, featureSize int) (ExperienceReplayer,
	error) {
	if maxCapacity < 1 {
		return &cache{}, fmt.Errorf("new: maxCapacity must be >= 1")
	}
	if featureSize < 1 {
		return &cache{}, fmt.Errorf("new: featureSize must be >= 1")
	}
	if sampler == nil {
		return &cache{}, fmt.Errorf("new: sampler must not be nil")
	}

	return &cache{
		stateCache:     make([]float64, maxCapacity*featureSize),
		actionCache:    make([]int, maxCapacity),
		rewardCache:    make([]float64, maxCapacity),
		doneCache:      make([]bool, maxCapacity),
		nextStateCache: make([]float64, maxCapacity*featureSize),

		sampler: sampler,

		maxCapacity: maxCapacity,
		featureSize: featureSize,
	}, nil
}

// String returns the string representation of the cache
func (c *cache) String() string {
	baseStr := "Size: %v \nNext Index: %v \nStates: %v \nActions: %v" +
		" \nRewards: %v \nDones: %v \nNext States: %v"
	return fmt.Sprintf(baseStr, c.size, c.next, c.stateCache,
		c.actionCache, c.rewardCache, c.doneCache, c.nextStateCache)
}

// insertOrder returns the slot holding the i-th oldest transition
func (c *cache) insertOrder(i int) int {
	oldest := (c.next - c.size + c.maxCapacity) % c.maxCapacity
	return (oldest + i) % c.maxCapacity
}

// Len returns the current number of elements in the cache that
// are available for sampling
func (c *cache) Len() int {
	return c.size
}

// MaxCapacity returns the maximum number of elements that are allowed
// in the cache
func (c *cache) MaxCapacity() int {
	return c.maxCapacity
}

// FeatureSize returns the length of the stored state vectors
func (c *cache) FeatureSize() int {
	return c.featureSize
}

// Add adds a transition to the cache. The transition's data is copied,
// so later changes to t are not reflected in the cache.
func (c *cache) Add(t timestep.Transition) error {
	if t.State.Len() != c.featureSize || t.NextState.Len() != c.featureSize {
		return fmt.Errorf("add: invalid feature size \n\twant(%v)"+
			"\n\thave(%v, %v)", c.featureSize, t.State.Len(),
			t.NextState.Len())
	}

	index := c.next
	stateInd := index * c.featureSize
	copy(c.stateCache[stateInd:stateInd+c.featureSize], t.State.RawVector().Data)
	copy(c.nextStateCache[stateInd:stateInd+c.featureSize],
		t.NextState.RawVector().Data)

	c.actionCache[index] = t.Action
	c.rewardCache[index] = t.Reward
	c.doneCache[index] = t.Done

	c.next = (c.next + 1) % c.maxCapacity
	if c.size < c.maxCapacity {
		c.size++
	}
	return nil
}

// Sample samples and returns a batch of transitions from the replay
// buffer
func (c *cache) Sample(batchSize int) ([]float64, []int, []float64,
	[]float64, []bool, error) {
	if batchSize < 1 {
		return nil, nil, nil, nil, nil, fmt.Errorf("sample: batch size "+
			"must be >= 1 \n\thave(%v)", batchSize)
	}
	if c.Len() == 0 {
		err := &ExpReplayError{
			Op:  "sample",
			Err: errEmptyCache,
		}
		return nil, nil, nil, nil, nil, err
	}
	if c.Len() < batchSize {
		err := &ExpReplayError{
			Op:  "sample",
			Err: ErrInsufficientSamples,
		}
		return nil, nil, nil, nil, nil, err
	}

	indices := c.sampler.choose(c, batchSize)

	stateBatch := make([]float64, batchSize*c.featureSize)
	nextStateBatch := make([]float64, batchSize*c.featureSize)
	actionBatch := make([]int, batchSize)
	rewardBatch := make([]float64, batchSize)
	doneBatch := make([]bool, batchSize)

	for i, index := range indices {
		batchStartInd := i * c.featureSize
		expStartInd := index * c.featureSize
		copy(stateBatch[batchStartInd:batchStartInd+c.featureSize],
			c.stateCache[expStartInd:expStartInd+c.featureSize],
		)
		copy(nextStateBatch[batchStartInd:batchStartInd+c.featureSize],
			c.nextStateCache[expStartInd:expStartInd+c.featureSize],
		)

		actionBatch[i] = c.actionCache[index]
		rewardBatch[i] = c.rewardCache[index]
		doneBatch[i] = c.doneCache[index]
	}

	return stateBatch, actionBatch, rewardBatch, nextStateBatch, doneBatch,
		nil
}

// Transitions returns copies of all transitions in the cache in the
// order they were inserted
func (c *cache) Transitions() []timestep.Transition {
	transitions := make([]timestep.Transition, c.size)
	for i := range transitions {
		index := c.insertOrder(i)
		stateInd := index * c.featureSize

		state := make([]float64, c.featureSize)
		copy(state, c.stateCache[stateInd:stateInd+c.featureSize])
		nextState := make([]float64, c.featureSize)
		copy(nextState, c.nextStateCache[stateInd:stateInd+c.featureSize])

		transitions[i] = timestep.Transition{
			State:     mat.NewVecDense(c.featureSize, state),
			Action:    c.actionCache[index],
			Reward:    c.rewardCache[index],
			NextState: mat.NewVecDense(c.featureSize, nextState),
			Done:      c.doneCache[index],
		}
	}
	return transitions
}
