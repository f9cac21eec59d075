package sim

import (
	"errors"
	"fmt"
)

var (
	// ErrEmpty is returned by EventQueue.Next when no events remain.
	// The driver treats it as normal termination.
	ErrEmpty = errors.New("event queue is empty")

	// ErrInvalidRelease is returned when a process releases a slot it does not hold.
	ErrInvalidRelease = errors.New("release of a process that holds no slot")

	// ErrCausalityViolation is returned when an event is observed before the current clock.
	ErrCausalityViolation = errors.New("event time is before the current clock")
)

// ConfigurationError reports an invalid configuration value. It is returned at
// construction time and never while a run is in progress.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

func configErrorf(field, format string, args ...any) error {
	return &ConfigurationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
