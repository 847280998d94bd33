package agent

import (
	"errors"
	"fmt"
)

// ConfigurationError is returned when an agent cannot be constructed
// with some configuration
type ConfigurationError struct {
	Field  string
	Value  interface{}
	Reason string
}

func (c *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %v = %v: %v", c.Field, c.Value,
		c.Reason)
}

// NewConfigurationError returns a new ConfigurationError
func NewConfigurationError(field string, value interface{},
	reason string) error {
	return &ConfigurationError{Field: field, Value: value, Reason: reason}
}

// IsConfigurationError returns whether err was caused by an invalid
// configuration
func IsConfigurationError(err error) bool {
	var c *ConfigurationError
	return errors.As(err, &c)
}
