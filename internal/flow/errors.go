package flow

import (
	"errors"
	"fmt"
)

// Domain errors for batch flow computation.
var (
	// ErrUnknownDisturbanceType indicates a disturbance type name with no
	// matching proportional-removal matrix.
	ErrUnknownDisturbanceType = errors.New("flow: unknown disturbance type")

	// ErrCurveLookup indicates a classifier/species combination with no
	// yield curve.
	ErrCurveLookup = errors.New("flow: no yield curve for classifier set")

	// ErrShapeMismatch indicates input arrays of inconsistent length across
	// inventory and parameter tables.
	ErrShapeMismatch = errors.New("flow: shape mismatch")

	// ErrOperationFailed indicates a backend failed while applying an
	// operation set. The whole set must be treated as not applied.
	ErrOperationFailed = errors.New("flow: operation set not applied")
)

// OpError wraps a backend failure with the operation that triggered it.
type OpError struct {
	Op      string
	Wrapped error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("op %q: %v", e.Op, e.Wrapped)
}

func (e *OpError) Unwrap() error {
	return e.Wrapped
}
