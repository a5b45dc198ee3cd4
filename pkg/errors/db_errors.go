package custom_error

import (
	"errors"
	"fmt"

	"github.com/lib/pq"
)

type UniqueViolationError struct {
	message    string
	code       string // PostgreSQL error code (e.g., "23505")
	Constraint string
}

type ForeignKeyViolationError struct {
	message    string
	code       string // PostgreSQL error code (e.g., "23503")
	Constraint string
}

func (e *UniqueViolationError) Error() string {
	return fmt.Sprintf("%s (code: %s)", e.message, e.code)
}

func (f *ForeignKeyViolationError) Error() string {
	return fmt.Sprintf("%s (code: %s)", f.message, f.code)
}

// WrapDBError turns a driver error into one of the typed errors of this
// package. Errors that are not *pq.Error are returned wrapped but untouched.
func WrapDBError(message string, err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return fmt.Errorf("%s: %w", message, err)
	}

	switch pqErr.Code {
	case "23505":
		return &UniqueViolationError{message: message, code: string(pqErr.Code), Constraint: pqErr.Constraint}
	case "23503":
		return &ForeignKeyViolationError{
			message:    "Value is referenced by or references missing resources: " + message,
			code:       string(pqErr.Code),
			Constraint: pqErr.Constraint,
		}
	case "23514":
		// CHECK constraints on stocks mirror the bookkeeping invariant.
		return NewInvariantViolation("%s: check constraint %s failed", message, pqErr.Constraint)
	default:
		return fmt.Errorf("uncategorized error occurred with code %s: %s: %w", pqErr.Code, message, err)
	}
}
