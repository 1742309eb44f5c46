// internal/webutil/validator.go
package webutil

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"eliza_tutor/internal/model"
)

// Validator is the shared validator instance for request DTOs.
var Validator = validator.New(validator.WithRequiredStructEnabled())

// Validate runs struct validation and converts failures into an AppError the
// handlers can map to 400.
func Validate(dst interface{}) error {
	if err := Validator.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return NewValidationErrorResponse(verrs)
		}
		return model.NewAppError("VALIDATION_ERROR", err.Error(), "", model.ErrInvalidInput)
	}
	return nil
}

func NewValidationErrorResponse(errs validator.ValidationErrors) *model.AppError {
	var fields []string
	var messages []string

	for _, err := range errs {
		fields = append(fields, err.Field())
		messages = append(messages, fmt.Sprintf("field '%s' failed on the '%s' rule", err.Field(), err.Tag()))
	}

	return model.NewAppError(
		"VALIDATION_ERROR",
		strings.Join(messages, "; "),
		strings.Join(fields, ","),
		model.ErrInvalidInput,
	)
}
