// Package errors provides the unified error type used across all
// application layers. Errors carry a type that maps onto the error
// taxonomy the services enforce: not-found and validation results are
// surfaced to callers, system-of-record faults propagate as internal
// errors, and connector outages surface as unavailable.
package errors

import (
	"errors"
	"fmt"
)

// ErrorType defines the category of error for handling and HTTP mapping.
type ErrorType string

const (
	ErrorTypeValidation  ErrorType = "VALIDATION"
	ErrorTypeNotFound    ErrorType = "NOT_FOUND"
	ErrorTypeConflict    ErrorType = "CONFLICT"
	ErrorTypeInternal    ErrorType = "INTERNAL"
	ErrorTypeUnavailable ErrorType = "UNAVAILABLE"
)

// Error is the single error type shared by repositories, services and the
// HTTP layer.
type Error struct {
	Type     ErrorType `json:"type"`
	Code     string    `json:"code"`
	Message  string    `json:"message"`
	Details  string    `json:"details,omitempty"`
	Resource string    `json:"resource,omitempty"`
	Cause    error     `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s:%s] %s: %s", e.Type, e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Type, e.Code, e.Message)
}

// Unwrap allows errors.Is and errors.As to reach the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithDetails adds context information to the error.
func (e *Error) WithDetails(details string) *Error {
	e.Details = details
	return e
}

// WithResource records the resource the failed operation addressed.
func (e *Error) WithResource(resource string) *Error {
	e.Resource = resource
	return e
}

// WithCause attaches the underlying cause.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

func newError(errType ErrorType, code, message string) *Error {
	return &Error{Type: errType, Code: code, Message: message}
}

// NotFound creates a not-found error.
func NotFound(code, message string) *Error {
	return newError(ErrorTypeNotFound, code, message)
}

// Validation creates a validation error.
func Validation(code, message string) *Error {
	return newError(ErrorTypeValidation, code, message)
}

// Conflict creates a conflict error.
func Conflict(code, message string) *Error {
	return newError(ErrorTypeConflict, code, message)
}

// Internal creates an internal error. Repository adapters use this for
// system-of-record faults, which always propagate to the caller.
func Internal(code, message string) *Error {
	return newError(ErrorTypeInternal, code, message)
}

// Unavailable creates an unavailable error for external service outages.
func Unavailable(code, message string) *Error {
	return newError(ErrorTypeUnavailable, code, message)
}

// TypeOf extracts the error type, defaulting to internal for untyped errors.
func TypeOf(err error) ErrorType {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ErrorTypeInternal
}

// IsNotFound reports whether err represents an absent entity.
func IsNotFound(err error) bool {
	return TypeOf(err) == ErrorTypeNotFound
}

// IsValidation reports whether err is a validation failure.
func IsValidation(err error) bool {
	return TypeOf(err) == ErrorTypeValidation
}

// IsUnavailable reports whether err is an external service outage.
func IsUnavailable(err error) bool {
	return TypeOf(err) == ErrorTypeUnavailable
}
