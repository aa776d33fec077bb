package http

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "dealradar-backend/internal/errors"
)

// validate is shared across handlers; validator instances cache struct
// metadata and are safe for concurrent use.
var validate = validator.New()

// validateRequest checks a decoded request body against its struct tags
// and folds field failures into one validation error.
func validateRequest(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperrors.Validation("INVALID_BODY", "request validation failed").WithCause(err)
	}

	fields := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		fields = append(fields, fe.Field()+" failed "+fe.Tag())
	}
	return apperrors.Validation("INVALID_BODY", "request validation failed").
		WithDetails(strings.Join(fields, ", "))
}
