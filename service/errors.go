package service

import (
	"errors"
	"fmt"

	"nexus-bakery-api/store"
)

var (
	// ErrNotFound is returned when the referenced order, product or user does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when the operation clashes with existing state.
	ErrConflict = errors.New("conflict")
	// ErrForbidden is returned when the actor's role may not perform the transition.
	ErrForbidden = errors.New("forbidden")
	// ErrTransport marks failures of the persistence layer. Use errors.Is.
	ErrTransport = errors.New("storage unavailable")
)

// ValidationError reports input the workflow refuses: bad quantities, skipped or
// backward transitions, unmet preconditions. Err carries the underlying cause, if any.
type ValidationError struct {
	Msg string
	Err error
}

func (e *ValidationError) Error() string { return e.Msg }
func (e *ValidationError) Unwrap() error { return e.Err }

func invalid(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is (or wraps) a ValidationError
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// TransportError wraps a failure of the store. Nothing was committed.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string { return e.Op + ": " + ErrTransport.Error() + ": " + e.Err.Error() }
func (e *TransportError) Unwrap() error { return e.Err }
func (e *TransportError) Is(target error) bool { return target == ErrTransport }

func notFound(kind, id string) error {
	return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
}

// lookup translates a repository lookup error into a workflow error
func lookup(err error, kind, id string) error {
	if errors.Is(err, store.ErrNotFound) {
		return notFound(kind, id)
	}
	return err
}

// classify leaves workflow errors untouched and turns anything else into a TransportError
func classify(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrConflict), errors.Is(err, ErrForbidden),
		errors.Is(err, ErrTransport), IsValidation(err):
		return err
	case errors.Is(err, store.ErrNotFound):
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	case errors.Is(err, store.ErrConflict):
		return fmt.Errorf("%s: %w", op, ErrConflict)
	default:
		return &TransportError{Op: op, Err: err}
	}
}
