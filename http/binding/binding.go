package binding

import (
	"fmt"
	"io"
	"net/http"

	validatorV10 "github.com/go-playground/validator/v10"
	apperrors "github.com/ooiai/neocrates/errors"
	"github.com/ooiai/neocrates/json"
)

// BindError describes a single binding or validation failure.
type BindError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func (e BindError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: field '%s' %s", e.Type, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// ValidationErrors aggregates per-field validation failures.
type ValidationErrors []BindError

func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s", ve[0].Error())
}

// JSON decodes the request body into v and validates it against the
// struct's validate tags.
func JSON(r *http.Request, v any) error {
	if r == nil || r.Body == nil {
		return &BindError{
			Type:    "bind_error",
			Message: "request body is empty",
		}
	}

	defer r.Body.Close()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return &BindError{
			Type:    "bind_error",
			Message: "failed to read request body: " + err.Error(),
		}
	}

	if len(body) == 0 {
		return &BindError{
			Type:    "bind_error",
			Message: "request body is empty",
		}
	}

	if err := json.Unmarshal(body, v); err != nil {
		return &BindError{
			Type:    "json_error",
			Message: "failed to unmarshal JSON: " + err.Error(),
		}
	}

	return Validate(v)
}

// Validate runs struct validation on v without decoding anything.
func Validate(v any) error {
	if err := validate.Struct(v); err != nil {
		if validationErrors, ok := err.(validatorV10.ValidationErrors); ok {
			var bindErrors ValidationErrors
			for _, ve := range validationErrors {
				bindErrors = append(bindErrors, BindError{
					Type:    "validation_error",
					Field:   fieldLabel(ve.Field()),
					Message: validationMessage(ve),
				})
			}
			return bindErrors
		}
		return &BindError{
			Type:    "validation_error",
			Message: err.Error(),
		}
	}

	return nil
}

// AsAppError converts a binding failure into the library error type so
// handlers can hand it straight to the responder.
func AsAppError(err error) *apperrors.AppError {
	if err == nil {
		return nil
	}
	return apperrors.NewValidation(err.Error())
}
