package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_Creation(t *testing.T) {
	tests := []struct {
		name     string
		build    func() *Error
		expected *Error
	}{
		{
			name: "not found error",
			build: func() *Error {
				return NotFound("PRODUCT_NOT_FOUND", "product not found").
					WithResource("product")
			},
			expected: &Error{
				Type:     ErrorTypeNotFound,
				Code:     "PRODUCT_NOT_FOUND",
				Message:  "product not found",
				Resource: "product",
			},
		},
		{
			name: "validation error with details",
			build: func() *Error {
				return Validation("INVALID_DAYS", "days must be positive").
					WithDetails("got -3")
			},
			expected: &Error{
				Type:    ErrorTypeValidation,
				Code:    "INVALID_DAYS",
				Message: "days must be positive",
				Details: "got -3",
			},
		},
		{
			name: "unavailable error",
			build: func() *Error {
				return Unavailable("SCRAPER_DOWN", "scraper service unreachable")
			},
			expected: &Error{
				Type:    ErrorTypeUnavailable,
				Code:    "SCRAPER_DOWN",
				Message: "scraper service unreachable",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.build()
			assert.Equal(t, tt.expected.Type, err.Type)
			assert.Equal(t, tt.expected.Code, err.Code)
			assert.Equal(t, tt.expected.Message, err.Message)
			assert.Equal(t, tt.expected.Details, err.Details)
			assert.Equal(t, tt.expected.Resource, err.Resource)
		})
	}
}

func TestError_Message(t *testing.T) {
	err := Internal("DB_QUERY", "query failed").WithDetails("connection reset")
	assert.Equal(t, "[INTERNAL:DB_QUERY] query failed: connection reset", err.Error())

	plain := NotFound("OFFER_NOT_FOUND", "offer not found")
	assert.Equal(t, "[NOT_FOUND:OFFER_NOT_FOUND] offer not found", plain.Error())
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("broken pipe")
	err := Internal("DB_CONN", "connection failed").WithCause(cause)

	require.ErrorIs(t, err, cause)

	var appErr *Error
	require.ErrorAs(t, fmt.Errorf("wrapped: %w", err), &appErr)
	assert.Equal(t, "DB_CONN", appErr.Code)
}

func TestPredicates(t *testing.T) {
	assert.True(t, IsNotFound(NotFound("X", "x")))
	assert.True(t, IsNotFound(fmt.Errorf("wrap: %w", NotFound("X", "x"))))
	assert.False(t, IsNotFound(Internal("X", "x")))
	assert.False(t, IsNotFound(errors.New("plain")))

	assert.True(t, IsValidation(Validation("X", "x")))
	assert.True(t, IsUnavailable(Unavailable("X", "x")))

	assert.Equal(t, ErrorTypeInternal, TypeOf(errors.New("plain")))
}
