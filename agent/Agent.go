// Package agent defines an agent interface
package agent

import (
	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/trafficrl/timestep"
)

// Agent determines the implementation details of an agent or algorithm
//
// An Agent is composed of a Learner, which learns from stored
// experience, and an action selection rule. Collection and learning
// strictly alternate; an Agent is not safe for concurrent use.
type Agent interface {
	Learner

	// SelectAction selects an action in state. If exploring is true,
	// the agent may select an exploratory action; otherwise the action
	// with the highest estimated value is selected.
	SelectAction(state mat.Vector, exploring bool) (int, error)

	// Epsilon returns the current exploration rate
	Epsilon() float64
}

// Learner implements a learning algorithm that defines how weights are
// updated.
type Learner interface {
	// StoreTransition records a transition for later learning
	StoreTransition(t timestep.Transition) error

	// Optimize performs a single update to the learner. If there is not
	// yet enough stored experience to learn from, Optimize does nothing
	// and reports ok == false.
	Optimize() (loss float64, ok bool, err error)

	// DecayExploration decays the exploration rate, it is called once
	// at the end of each episode
	DecayExploration()

	// SyncTarget copies the learned weights to the target weights
	SyncTarget() error
}

// Saver is an Agent that can be checkpointed to and restored from
// a file
type Saver interface {
	Save(path string) error
	Load(path string) error
}

// Policy represents a fixed action selection rule, used for evaluation
// and baselines. Policies do not learn.
type Policy interface {
	SelectAction(t timestep.TimeStep) (int, error)
}

// PolicyFunc adapts an ordinary function to a Policy
type PolicyFunc func(t timestep.TimeStep) (int, error)

// SelectAction calls f(t)
func (f PolicyFunc) SelectAction(t timestep.TimeStep) (int, error) {
	return f(t)
}
