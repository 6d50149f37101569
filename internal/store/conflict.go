package store

import (
	"errors"
	"fmt"
)

// ConflictError reports that the store aborted a transaction because it
// could not be serialized against a concurrent one. The whole transaction
// may succeed if retried.
type ConflictError struct {
	// Code is the backend specific reason, e.g. a SQLSTATE.
	Code string
	Err  error
}

func (e *ConflictError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("serialization conflict (%s): %v", e.Code, e.Err)
	}
	return fmt.Sprintf("serialization conflict (%s)", e.Code)
}

func (e *ConflictError) Unwrap() error {
	return e.Err
}

// IsConflict reports whether err or anything it wraps is a ConflictError.
func IsConflict(err error) bool {
	var conflict *ConflictError
	return errors.As(err, &conflict)
}

// ErrDuplicate is returned when a create collides with an existing key.
var ErrDuplicate = errors.New("store: duplicate key")
