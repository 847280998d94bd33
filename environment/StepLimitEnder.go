package environment

import "github.com/samuelfneumann/trafficrl/timestep"

// StepLimit implements the Ender interface to end episodes once a
// budget of low-level simulation ticks is exhausted. Each decision
// (TimeStep) advances the simulation by ticksPerStep ticks.
type StepLimit struct {
	maxTicks     int
	ticksPerStep int
}

// NewStepLimit creates and returns a new step limit
func NewStepLimit(maxTicks, ticksPerStep int) StepLimit {
	return StepLimit{maxTicks, ticksPerStep}
}

// Ticks returns the number of simulation ticks elapsed at TimeStep t
func (s StepLimit) Ticks(t *timestep.TimeStep) int {
	return t.Number * s.ticksPerStep
}

// End determines whether or not the current episode should be ended,
// returning a boolean to indicate episode temrination. If the episode
// should be ended End() will mark the timestep as the last
func (s StepLimit) End(t *timestep.TimeStep) bool {
	if s.Ticks(t) >= s.maxTicks {
		t.SetLast()
		return true
	}
	return false
}
