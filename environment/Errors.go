package environment

import (
	"errors"
	"fmt"
)

// InvalidStateError is returned when an Environment is used in a way
// its lifecycle does not allow, for example stepping before a reset or
// after a close.
type InvalidStateError struct {
	Op     string
	Status Status
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("%v: invalid environment state %v", e.Op, e.Status)
}

// ExternalControlError is returned when the external control surface
// rejects a command or disconnects.
type ExternalControlError struct {
	Op  string
	Err error
}

func (e *ExternalControlError) Error() string {
	return fmt.Sprintf("%v: external control failure: %v", e.Op, e.Err)
}

func (e *ExternalControlError) Unwrap() error {
	return e.Err
}

// IsInvalidState returns whether err was caused by using an
// Environment in an invalid lifecycle state
func IsInvalidState(err error) bool {
	var target *InvalidStateError
	return errors.As(err, &target)
}

// IsExternalControl returns whether err was caused by the external
// control surface
func IsExternalControl(err error) bool {
	var target *ExternalControlError
	return errors.As(err, &target)
}
