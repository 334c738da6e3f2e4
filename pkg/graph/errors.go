package graph

import (
	"errors"
	"fmt"
)

// Common sentinel errors. All graph store errors are recoverable at the call
// site: a failed operation leaves the store unchanged.
var (
	ErrNotFound              = errors.New("entity not found")
	ErrDanglingReference     = errors.New("dangling reference")
	ErrIncompatibleEndpoints = errors.New("incompatible link endpoints")
	ErrDuplicateLink         = errors.New("duplicate link")
	ErrInvalidParent         = errors.New("invalid owning process")
	ErrCycleDetected         = errors.New("nesting cycle detected")
	ErrIDInUse               = errors.New("identifier already in use")
)

// StoreError provides structured error information for graph operations.
type StoreError struct {
	Op     string // operation that failed, e.g. "AddLink"
	Entity string // "node" or "link"
	ID     string // entity identifier, if applicable
	Cause  error
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s %s %s: %v", e.Op, e.Entity, e.ID, e.Cause)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Entity, e.Cause)
}

// Unwrap returns the underlying cause for error chain support.
func (e *StoreError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches this error's cause.
func (e *StoreError) Is(target error) bool {
	if target == nil {
		return false
	}
	return errors.Is(e.Cause, target)
}

func nodeError(op, id string, cause error) error {
	return &StoreError{Op: op, Entity: "node", ID: id, Cause: cause}
}

func linkError(op, id string, cause error) error {
	return &StoreError{Op: op, Entity: "link", ID: id, Cause: cause}
}

// IsNotFound reports whether err names a stale identifier.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
