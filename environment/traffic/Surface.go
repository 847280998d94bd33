// Package traffic implements a signalised intersection environment for
// traffic signal control. The environment drives an external traffic
// micro-simulator through a Surface, which exposes the query/command
// exchange performed once per simulated tick.
package traffic

import (
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrDisconnected is returned by a Surface whose connection to the
	// external simulation has been lost or closed
	ErrDisconnected = errors.New("simulation disconnected")

	// ErrResourceConflict is returned when a handle to an external
	// simulation is requested while another handle is still active
	ErrResourceConflict = errors.New("simulation already has an active " +
		"handle")
)

// Surface is the control surface of a running external simulation
type Surface interface {
	// SetPhase sets the phase of a traffic light and the duration the
	// phase should be held for
	SetPhase(trafficLight string, phase int, duration float64) error

	// SimulationStep advances the simulation by a single tick
	SimulationStep() error

	// HaltingNumber returns the number of halted vehicles on an edge
	// during the last tick
	HaltingNumber(edge string) (int, error)

	// VehicleIDs returns the vehicles on an edge during the last tick
	VehicleIDs(edge string) ([]string, error)

	// AccumulatedWaitingTime returns the total time a vehicle has
	// spent waiting
	AccumulatedWaitingTime(vehicle string) (float64, error)

	// MinExpectedVehicles returns the number of vehicles still in the
	// simulation or waiting to enter it. When this is 0, the simulation
	// has no further work.
	MinExpectedVehicles() (int, error)

	// Close terminates the simulation and releases the connection
	Close() error
}

// Launcher starts external simulations
type Launcher interface {
	Launch() (Surface, error)
}

// LauncherFunc adapts a function to the Launcher interface
type LauncherFunc func() (Surface, error)

// Launch calls f
func (f LauncherFunc) Launch() (Surface, error) {
	return f()
}

// Exclusive is a Launcher allowing at most one active handle to its
// external simulation at a time. Requesting a second handle either
// fails with ErrResourceConflict or, if forceClose is set, closes the
// prior handle first.
type Exclusive struct {
	mu         sync.Mutex
	launcher   Launcher
	forceClose bool
	active     *exclusiveHandle
}

// NewExclusive returns a new Exclusive launcher around launcher
func NewExclusive(launcher Launcher, forceClose bool) *Exclusive {
	return &Exclusive{launcher: launcher, forceClose: forceClose}
}

// Active returns whether a handle is currently held
func (e *Exclusive) Active() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active != nil
}

// Launch starts the external simulation and returns a handle to it
func (e *Exclusive) Launch() (Surface, error) {
	e.mu.Lock()
	prior := e.active
	e.mu.Unlock()

	if prior != nil {
		if !e.forceClose {
			return nil, ErrResourceConflict
		}
		if err := prior.Close(); err != nil {
			return nil, fmt.Errorf("launch: could not close prior handle: %w",
				err)
		}
	}

	surface, err := e.launcher.Launch()
	if err != nil {
		return nil, err
	}

	handle := &exclusiveHandle{surface: surface, owner: e}
	e.mu.Lock()
	e.active = handle
	e.mu.Unlock()
	return handle, nil
}

// release frees the owner's slot if h holds it
func (e *Exclusive) release(h *exclusiveHandle) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.active == h {
		e.active = nil
	}
}

// exclusiveHandle is a Surface issued by an Exclusive launcher. Once
// closed, every call returns ErrDisconnected.
type exclusiveHandle struct {
	surface Surface
	owner   *Exclusive
	closed  bool
}

func (h *exclusiveHandle) SetPhase(tl string, phase int, d float64) error {
	if h.closed {
		return ErrDisconnected
	}
	return h.surface.SetPhase(tl, phase, d)
}

func (h *exclusiveHandle) SimulationStep() error {
	if h.closed {
		return ErrDisconnected
	}
	return h.surface.SimulationStep()
}

func (h *exclusiveHandle) HaltingNumber(edge string) (int, error) {
	if h.closed {
		return 0, ErrDisconnected
	}
	return h.surface.HaltingNumber(edge)
}

func (h *exclusiveHandle) VehicleIDs(edge string) ([]string, error) {
	if h.closed {
		return nil, ErrDisconnected
	}
	return h.surface.VehicleIDs(edge)
}

func (h *exclusiveHandle) AccumulatedWaitingTime(v string) (float64, error) {
	if h.closed {
		return 0, ErrDisconnected
	}
	return h.surface.AccumulatedWaitingTime(v)
}

func (h *exclusiveHandle) MinExpectedVehicles() (int, error) {
	if h.closed {
		return 0, ErrDisconnected
	}
	return h.surface.MinExpectedVehicles()
}

func (h *exclusiveHandle) Close() error {
	if h.closed {
		return nil
	}
	h.closed = true
	h.owner.release(h)
	return h.surface.Close()
}
