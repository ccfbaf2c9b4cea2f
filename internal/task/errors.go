package task

import (
	"errors"
	"fmt"
	"strings"
)

// Validation reasons reported by ValidationError.
const (
	ReasonEmpty        = "empty"
	ReasonTooLong      = "too_long"
	ReasonPastDeadline = "past_deadline"
)

// Validated fields.
const (
	FieldText     = "text"
	FieldDeadline = "deadline"
)

// ErrNotFound is returned when a position or id does not match an owned task.
var ErrNotFound = errors.New("task: not found")

// ValidationError reports user input that violates a task constraint.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("task: invalid %s: %s", e.Field, e.Reason)
}

// Code is picked up by the handler summary logger as err_code.
func (e *ValidationError) Code() string {
	return strings.ToUpper("invalid_" + e.Field + "_" + e.Reason)
}

// StoreError wraps a persistence failure with the operation that hit it.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("task store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// Code is picked up by the handler summary logger as err_code.
func (e *StoreError) Code() string {
	return "STORE_" + strings.ToUpper(e.Op)
}

// IsValidation reports whether err is a ValidationError and returns it.
func IsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
