// Package policy implements fixed, non-learning action selection
// rules used as baselines
package policy

import (
	"github.com/samuelfneumann/trafficrl/agent"
	ts "github.com/samuelfneumann/trafficrl/timestep"
)

// FixedCycle is a Policy which cycles through all actions in order,
// holding each for a fixed number of steps. It models a fixed-time
// signal controller.
type FixedCycle struct {
	cycleLength int
	numActions  int
}

// NewFixedCycle returns a new FixedCycle policy that holds each of
// numActions actions for cycleLength steps
func NewFixedCycle(cycleLength, numActions int) (*FixedCycle, error) {
	if cycleLength <= 0 {
		return nil, agent.NewConfigurationError("cycleLength", cycleLength,
			"must be positive")
	}
	if numActions <= 0 {
		return nil, agent.NewConfigurationError("numActions", numActions,
			"must be positive")
	}
	return &FixedCycle{cycleLength: cycleLength, numActions: numActions}, nil
}

// SelectAction returns the action for the step number of t
func (f *FixedCycle) SelectAction(t ts.TimeStep) (int, error) {
	return (t.Number / f.cycleLength) % f.numActions, nil
}

// CycleLength returns the number of steps each action is held for
func (f *FixedCycle) CycleLength() int {
	return f.cycleLength
}
