package custom_error

import (
	"errors"
	"fmt"
	"net/http"
)

// NotFoundError is returned when a stock, component, reservation, request
// or user does not exist.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// ConflictError reports a state machine or availability violation.
type ConflictError struct {
	Message string
	Details map[string]interface{}
}

func (e *ConflictError) Error() string {
	return e.Message
}

type BadRequestError struct {
	Message string
	Field   string
}

func (e *BadRequestError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s (field: %s)", e.Message, e.Field)
}

type ForbiddenError struct {
	Message string
}

func (e *ForbiddenError) Error() string {
	return e.Message
}

// InvariantViolation means stock bookkeeping would have become negative or
// inconsistent. It always points at a defect and is never shown to the user.
type InvariantViolation struct {
	Message string
}

func (e *InvariantViolation) Error() string {
	return "invariant violation: " + e.Message
}

func NewNotFound(resource string, id fmt.Stringer) *NotFoundError {
	e := &NotFoundError{Resource: resource}
	if id != nil {
		e.ID = id.String()
	}
	return e
}

func NewConflict(format string, args ...interface{}) *ConflictError {
	return &ConflictError{Message: fmt.Sprintf(format, args...)}
}

// NewConflictWithDetails attaches machine readable context (ids, counts,
// requested vs available) so the API layer can render a precise message.
func NewConflictWithDetails(details map[string]interface{}, format string, args ...interface{}) *ConflictError {
	return &ConflictError{Message: fmt.Sprintf(format, args...), Details: details}
}

func NewBadRequest(field, format string, args ...interface{}) *BadRequestError {
	return &BadRequestError{Message: fmt.Sprintf(format, args...), Field: field}
}

func NewForbidden(format string, args ...interface{}) *ForbiddenError {
	return &ForbiddenError{Message: fmt.Sprintf(format, args...)}
}

func NewInvariantViolation(format string, args ...interface{}) *InvariantViolation {
	return &InvariantViolation{Message: fmt.Sprintf(format, args...)}
}

func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

func IsConflict(err error) bool {
	var target *ConflictError
	return errors.As(err, &target)
}

func IsInvariantViolation(err error) bool {
	var target *InvariantViolation
	return errors.As(err, &target)
}

// StatusCode maps an error of this package to the HTTP status the API layer
// should answer with.
func StatusCode(err error) int {
	var (
		notFound   *NotFoundError
		conflict   *ConflictError
		badRequest *BadRequestError
		forbidden  *ForbiddenError
		unique     *UniqueViolationError
		foreignKey *ForeignKeyViolationError
	)

	switch {
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &conflict), errors.As(err, &unique):
		return http.StatusConflict
	case errors.As(err, &badRequest), errors.As(err, &foreignKey):
		return http.StatusBadRequest
	case errors.As(err, &forbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
