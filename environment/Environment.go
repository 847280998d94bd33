// Package environment outlines the interfaces and structs needed to
// implement concrete episodic control environments
package environment

import (
	"fmt"

	"github.com/samuelfneumann/trafficrl/timestep"
)

// Environment implements an episodic control environment over some
// external control surface.
//
// An Environment starts UNINITIALIZED. Reset starts (or restarts) the
// underlying simulation and moves the Environment to READY; Step may
// only be called while READY. Close releases the underlying simulation
// and moves the Environment to CLOSED, after which it cannot be used.
type Environment interface {
	// Reset starts a fresh episode and returns its first TimeStep
	Reset() (timestep.TimeStep, error)

	// Step applies the action for one decision interval and returns the
	// resulting TimeStep along with the metrics of that interval. The
	// returned TimeStep is Last when the episode has ended.
	Step(action int) (timestep.TimeStep, Info, error)

	// Close releases all external resources, it is safe to call Close
	// more than once
	Close() error

	ObservationSpec() Spec
	ActionSpec() Spec
}

// Ender determines when episodes should end
type Ender interface {
	// End returns whether the episode should end at TimeStep t. If
	// so, End marks t as the last TimeStep of the episode.
	End(t *timestep.TimeStep) bool
}

// Info holds the metrics reported by a single environment step
type Info struct {
	Step         int     // Simulation ticks elapsed in the episode
	QueueLength  float64 // Queue length after the step
	WaitingTime  float64 // Waiting time observed after the step
	TotalQueue   float64 // Queue length accumulated over the episode
	TotalWaiting float64 // Waiting time accumulated over the episode
}

func (i Info) String() string {
	return fmt.Sprintf("Info | Step: %v  |  Queue: %.0f  |  Waiting: %.2f"+
		"  |  Total Queue: %.0f  |  Total Waiting: %.2f", i.Step,
		i.QueueLength, i.WaitingTime, i.TotalQueue, i.TotalWaiting)
}

// Status is the lifecycle state of an Environment
type Status int

const (
	Uninitialized Status = iota
	Ready
	Closed
)

func (s Status) String() string {
	switch s {
	case Uninitialized:
		return "UNINITIALIZED"
	case Ready:
		return "READY"
	case Closed:
		return "CLOSED"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}
