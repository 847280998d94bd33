package expreplay

import (
	"errors"
	"fmt"
)

var (
	// ErrInsufficientSamples is returned when a batch larger than the
	// number of stored transitions is requested
	ErrInsufficientSamples = errors.New("insufficient samples in buffer")

	errEmptyCache = fmt.Errorf("%w: buffer is empty", ErrInsufficientSamples)
)

// ExpReplayError is an error raised by an experience replay buffer
type ExpReplayError struct {
	Op  string
	Err error
}

func (e *ExpReplayError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *ExpReplayError) Unwrap() error {
	return e.Err
}

// IsEmptyBuffer returns whether err was caused by sampling an empty
// buffer
func IsEmptyBuffer(err error) bool {
	return errors.Is(err, errEmptyCache)
}

// IsInsufficientSamples returns whether err was caused by sampling more
// transitions than the buffer holds. Sampling an empty buffer is also
// an insufficient samples error.
func IsInsufficientSamples(err error) bool {
	return errors.Is(err, ErrInsufficientSamples)
}
