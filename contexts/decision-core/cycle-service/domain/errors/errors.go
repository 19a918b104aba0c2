// Package errors declares the cycle aggregate's domain-specific failures.
package errors

import "errors"

var (
	// ErrCycleNotFound is returned when a cycle_id has no stored aggregate.
	ErrCycleNotFound = errors.New("cycle: cycle not found")

	// ErrComponentNotFound is returned when a component name is not one of
	// the seven declared component slots.
	ErrComponentNotFound = errors.New("cycle: component not declared")

	// ErrBranchPointNotStarted is returned when BranchCycle is asked to
	// branch at a component the parent has not yet started.
	ErrBranchPointNotStarted = errors.New("cycle: branch point must be a started component in the parent")

	// ErrComponentAlreadyCompleted guards against completing the same
	// component output twice; a Cycle has no operation that reopens a
	// completed component.
	ErrComponentAlreadyCompleted = errors.New("cycle: component already completed")
)
