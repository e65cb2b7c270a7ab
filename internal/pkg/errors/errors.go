package errors

import "errors"

var (
	// ErrNotFound is a generic sentinel for missing resources.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument is a generic sentinel for invalid input.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrConflict marks a write that lost against a concurrent change.
	ErrConflict = errors.New("conflict")
	// ErrUnavailable marks a dependency that is not configured or not reachable.
	ErrUnavailable = errors.New("unavailable")
)
