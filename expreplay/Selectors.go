package expreplay

import (
	"fmt"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/sampleuv"
)

// SelectorType describes the available Selectors
type SelectorType string

const (
	Uniform SelectorType = "Uniform"
	Fifo    SelectorType = "Fifo"
)

// CreateSelector returns a new Selector of type t
func CreateSelector(t SelectorType, seed uint64) (Selector, error) {
	switch t {
	case Uniform, "":
		return NewUniformSelector(seed), nil
	case Fifo:
		return NewFifoSelector(), nil
	}
	return nil, fmt.Errorf("createSelector: no such selector type %v", t)
}

// Selector implements functionality for choosing how data should be
// sampled from an experience replay buffer
type Selector interface {
	// choose selects the n slots at which data should be sampled from
	// the experience replay buffer. The cache holds at least n
	// transitions.
	choose(c *cache, n int) []int
}

// uniformSelector is a Selector which selects data from an experience
// replay buffer uniformly randomly, without replacement within a batch
type uniformSelector struct {
	src rand.Source
}

// NewUniformSelector returns a new Selector which selects data uniformly
// randomly from an experience replay buffer
func NewUniformSelector(seed uint64) Selector {
	return &uniformSelector{src: rand.NewSource(seed)}
}

// choose selects a number of indices at which to draw data from the
// buffer
func (u *uniformSelector) choose(c *cache, n int) []int {
	selected := make([]int, n)
	sampleuv.WithoutReplacement(selected, c.Len(), u.src)

	for i := range selected {
		selected[i] = c.insertOrder(selected[i])
	}
	return selected
}

// fifoSelector is a Selector which selects the oldest data from an
// experience replay buffer, oldest first.
type fifoSelector struct{}

// NewFifoSelector returns a new Selector which draws data from an
// experience replay buffer in as FiFo.
func NewFifoSelector() Selector {
	return fifoSelector{}
}

// choose selects a number of indices at which to draw data from the
// buffer
func (fifoSelector) choose(c *cache, n int) []int {
	selected := make([]int, n)
	for i := range selected {
		selected[i] = c.insertOrder(i)
	}
	return selected
}
