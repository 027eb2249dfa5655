package timetable

import (
	"errors"
	"fmt"
)

// ErrSchedulingInfeasible is returned (wrapped) when the search exhausts every
// assignment without placing all tasks.
var ErrSchedulingInfeasible = errors.New("timetable: could not find a valid schedule for all blocks")

// ConfigurationError reports malformed grid parameters.
type ConfigurationError struct {
	Field  string
	Value  int
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("timetable: invalid %s %d: %s", e.Field, e.Value, e.Reason)
}

// InfeasibleError carries the search statistics of a failed run.
type InfeasibleError struct {
	Tasks          int
	Steps          int
	BudgetExceeded bool
}

func (e *InfeasibleError) Error() string {
	if e.BudgetExceeded {
		return fmt.Sprintf("%v: step budget exhausted after %d attempts (%d tasks)", ErrSchedulingInfeasible, e.Steps, e.Tasks)
	}
	return fmt.Sprintf("%v: search exhausted after %d attempts (%d tasks)", ErrSchedulingInfeasible, e.Steps, e.Tasks)
}

// Unwrap lets errors.Is match ErrSchedulingInfeasible.
func (e *InfeasibleError) Unwrap() error {
	return ErrSchedulingInfeasible
}

// InvalidInputError signals a data-integrity problem in the caller's input,
// such as a group pointing at an unknown subject.
type InvalidInputError struct {
	Entity string
	ID     int64
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("timetable: %s %d: %s", e.Entity, e.ID, e.Reason)
}
