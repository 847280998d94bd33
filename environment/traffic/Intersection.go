package traffic

import (
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"runtime"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/trafficrl/environment"
	ts "github.com/samuelfneumann/trafficrl/timestep"
)

// Intersection is an Environment controlling the traffic light of a
// single intersection.
//
// Observations are the number of halted vehicles on each incoming
// edge. Action i selects traffic light phase Config.Phases[i] for one
// decision interval. The reward is the negative total queue length with
// an additional penalty under severe congestion. Episodes end once the
// tick budget is spent or the simulation reports no further vehicles.
//
// An Intersection owns at most one Surface at a time. The Surface is
// released on every failure path, on Close, and when the Intersection
// is garbage collected without being closed.
type Intersection struct {
	config   Config
	launcher Launcher
	surface  Surface
	status   environment.Status
	ender    environment.StepLimit

	last ts.TimeStep
	info environment.Info

	logger *log.Logger
}

// New returns a new, uninitialized Intersection which starts its
// simulations with launcher. Reset must be called before stepping.
func New(launcher Launcher, config Config, logger *log.Logger) (*Intersection,
	error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("new: %w", err)
	}
	if launcher == nil {
		return nil, fmt.Errorf("new: launcher must not be nil")
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	i := &Intersection{
		config:   config,
		launcher: launcher,
		status:   environment.Uninitialized,
		ender: environment.NewStepLimit(config.MaxSteps,
			config.DecisionInterval),
		logger: logger,
	}
	runtime.SetFinalizer(i, func(i *Intersection) { i.Close() })

	return i, nil
}

// Status returns the lifecycle state of the Intersection
func (i *Intersection) Status() environment.Status {
	return i.status
}

// ObservationSpec returns the observation specification of the
// environment
func (i *Intersection) ObservationSpec() environment.Spec {
	return environment.NewObservationSpec(len(i.config.IncomingEdges), 0,
		math.Inf(1))
}

// ActionSpec returns the action specification of the environment
func (i *Intersection) ActionSpec() environment.Spec {
	return environment.NewDiscreteActionSpec(len(i.config.Phases))
}

// Reset tears down any running simulation, starts a new one, and
// returns the first TimeStep of the new episode. If the new simulation
// cannot be started, the Intersection is left uninitialized.
func (i *Intersection) Reset() (ts.TimeStep, error) {
	if i.status == environment.Closed {
		return ts.TimeStep{}, &environment.InvalidStateError{
			Op:     "reset",
			Status: i.status,
		}
	}

	if err := i.release(); err != nil {
		i.logger.Printf("Warning: reset: could not close previous "+
			"simulation: %v", err)
	}
	i.status = environment.Uninitialized

	surface, err := i.launcher.Launch()
	if err != nil {
		return ts.TimeStep{}, &environment.ExternalControlError{
			Op:  "reset",
			Err: err,
		}
	}

	obs, err := i.observe(surface)
	if err != nil {
		if closeErr := surface.Close(); closeErr != nil {
			i.logger.Printf("Warning: reset: could not close simulation: %v",
				closeErr)
		}
		return ts.TimeStep{}, &environment.ExternalControlError{
			Op:  "reset",
			Err: err,
		}
	}

	i.surface = surface
	i.status = environment.Ready
	i.info = environment.Info{}
	i.last = ts.New(ts.First, 0, obs, 0)

	return i.last, nil
}

// Step sets the traffic light phase selected by action, advances the
// simulation by one decision interval, and returns the resulting
// TimeStep.
//
// If the control surface rejects the phase command or the simulation
// disconnects, the simulation is released, the returned TimeStep is
// marked Last, and an *environment.ExternalControlError is returned.
// The Intersection must then be Reset before stepping again.
func (i *Intersection) Step(action int) (ts.TimeStep, environment.Info,
	error) {
	if i.status != environment.Ready {
		return ts.TimeStep{}, environment.Info{},
			&environment.InvalidStateError{Op: "step", Status: i.status}
	}
	if action < 0 || action >= len(i.config.Phases) {
		return ts.TimeStep{}, environment.Info{}, fmt.Errorf("step: "+
			"action %v out of range [0, %v)", action, len(i.config.Phases))
	}

	phase := i.config.Phases[action]
	err := i.surface.SetPhase(i.config.TrafficLight, phase,
		float64(i.config.DecisionInterval))
	if err != nil {
		return i.fail("step", fmt.Errorf("could not set traffic light "+
			"phase %v: %w", phase, err))
	}

	for tick := 0; tick < i.config.DecisionInterval; tick++ {
		if err := i.surface.SimulationStep(); err != nil {
			return i.fail("step", err)
		}
	}

	obs, err := i.observe(i.surface)
	if err != nil {
		return i.fail("step", err)
	}
	queue := floats.Sum(obs.RawVector().Data)

	waiting, err := i.waitingTime()
	if err != nil {
		return i.fail("step", err)
	}

	pending, err := i.surface.MinExpectedVehicles()
	if err != nil {
		return i.fail("step", err)
	}

	step := ts.New(ts.Mid, i.config.Reward(queue), obs, i.last.Number+1)
	if !i.ender.End(&step) && pending == 0 {
		step.SetLast()
	}

	i.info.Step = i.ender.Ticks(&step)
	i.info.QueueLength = queue
	i.info.WaitingTime = waiting
	i.info.TotalQueue += queue
	i.info.TotalWaiting += waiting
	i.last = step

	return step, i.info, nil
}

// Close releases the running simulation, if any. Once closed, the
// Intersection cannot be reset or stepped.
func (i *Intersection) Close() error {
	if i.status == environment.Closed {
		return nil
	}
	err := i.release()
	i.status = environment.Closed
	runtime.SetFinalizer(i, nil)
	return err
}

// String returns the current queues of the intersection
func (i *Intersection) String() string {
	if i.status != environment.Ready {
		return fmt.Sprintf("Intersection %v | %v", i.config.TrafficLight,
			i.status)
	}

	queues := make([]string, len(i.config.IncomingEdges))
	for j, edge := range i.config.IncomingEdges {
		queues[j] = fmt.Sprintf("%v: %.0f", edge, i.last.Observation.AtVec(j))
	}
	return fmt.Sprintf("Intersection %v | Step %v | Queues - %v | Total "+
		"Queue: %.0f", i.config.TrafficLight, i.info.Step,
		strings.Join(queues, ", "), floats.Sum(i.last.Observation.RawVector().Data))
}

// fail releases the simulation after an unrecoverable control failure
// and returns the previous TimeStep marked as the last of the episode
func (i *Intersection) fail(op string, err error) (ts.TimeStep,
	environment.Info, error) {
	if closeErr := i.release(); closeErr != nil {
		i.logger.Printf("Warning: %v: could not close simulation: %v", op,
			closeErr)
	}
	i.status = environment.Uninitialized

	step := i.last
	step.SetLast()
	return step, i.info, &environment.ExternalControlError{Op: op, Err: err}
}

// release closes the current Surface, if any
func (i *Intersection) release() error {
	if i.surface == nil {
		return nil
	}
	surface := i.surface
	i.surface = nil
	return surface.Close()
}

// observe returns the number of halted vehicles on each incoming edge.
// An edge which cannot be queried is read as an empty edge; only a
// disconnected simulation is an error.
func (i *Intersection) observe(surface Surface) (*mat.VecDense, error) {
	obs := make([]float64, len(i.config.IncomingEdges))
	for j, edge := range i.config.IncomingEdges {
		halting, err := surface.HaltingNumber(edge)
		if errors.Is(err, ErrDisconnected) {
			return nil, err
		} else if err != nil {
			i.logger.Printf("Warning: observe: edge %v unavailable, reading "+
				"0: %v", edge, err)
			continue
		}
		obs[j] = float64(halting)
	}
	return mat.NewVecDense(len(obs), obs), nil
}

// waitingTime returns the accumulated waiting time of all vehicles on
// the incoming edges. Edges or vehicles which cannot be queried
// contribute no waiting time.
func (i *Intersection) waitingTime() (float64, error) {
	var total float64
	for _, edge := range i.config.IncomingEdges {
		vehicles, err := i.surface.VehicleIDs(edge)
		if errors.Is(err, ErrDisconnected) {
			return 0, err
		} else if err != nil {
			continue
		}

		for _, vehicle := range vehicles {
			waiting, err := i.surface.AccumulatedWaitingTime(vehicle)
			if errors.Is(err, ErrDisconnected) {
				return 0, err
			} else if err != nil {
				continue
			}
			total += waiting
		}
	}
	return total, nil
}
