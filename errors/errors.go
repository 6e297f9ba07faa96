package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// Client errors
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeNotFound   ErrorType = "not_found"
	ErrorTypeMismatch   ErrorType = "mismatch"

	// Infrastructure errors
	ErrorTypeDelivery ErrorType = "delivery"
	ErrorTypeStore    ErrorType = "store"
	ErrorTypeExternal ErrorType = "external"
	ErrorTypeInternal ErrorType = "internal"
)

// AppError represents a structured application error
type AppError struct {
	Type       ErrorType `json:"type"`
	Message    string    `json:"message"`
	InnerError error     `json:"-"`
	HTTPStatus int       `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.InnerError != nil {
		return e.InnerError.Error()
	}
	return string(e.Type)
}

// Unwrap returns the wrapped error for errors.Is/errors.As chains
func (e *AppError) Unwrap() error {
	return e.InnerError
}

// Is matches on the error type so callers can compare against sentinels
func (e *AppError) Is(target error) bool {
	var targetApp *AppError
	if errors.As(target, &targetApp) {
		return e.Type == targetApp.Type
	}
	return false
}

// Status returns the HTTP status code for this error.
// Client-caused errors map to 4xx, infrastructure errors to 5xx.
func (e *AppError) Status() int {
	if e.HTTPStatus != 0 {
		return e.HTTPStatus
	}
	switch e.Type {
	case ErrorTypeValidation, ErrorTypeMismatch:
		return http.StatusBadRequest
	case ErrorTypeNotFound:
		return http.StatusNotFound
	case ErrorTypeDelivery, ErrorTypeExternal:
		return http.StatusBadGateway
	case ErrorTypeStore:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// IsClientError reports whether the error was caused by client input
// rather than by infrastructure.
func (e *AppError) IsClientError() bool {
	switch e.Type {
	case ErrorTypeValidation, ErrorTypeNotFound, ErrorTypeMismatch:
		return true
	}
	return false
}

// New creates a new AppError
func New(errType ErrorType, message string) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
	}
}

// Newf creates a new AppError with a formatted message
func Newf(errType ErrorType, format string, args ...any) *AppError {
	return New(errType, fmt.Sprintf(format, args...))
}

// Wrap wraps an error with a specific type and message
func Wrap(err error, errType ErrorType, message string) *AppError {
	return &AppError{
		Type:       errType,
		Message:    message,
		InnerError: err,
	}
}

// FromError converts a standard error to AppError
func FromError(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return &AppError{
		Type:       ErrorTypeInternal,
		Message:    err.Error(),
		InnerError: err,
	}
}

// NewValidation reports malformed client input, detected before any
// store interaction.
func NewValidation(message string) *AppError {
	return New(ErrorTypeValidation, message)
}

// NewNotFound reports a lookup miss. Expired records and records that
// never existed are deliberately indistinguishable.
func NewNotFound(message string) *AppError {
	return New(ErrorTypeNotFound, message)
}

// NewMismatch reports a submitted code that does not match the stored one.
func NewMismatch(message string) *AppError {
	return New(ErrorTypeMismatch, message)
}

// NewDelivery reports a delivery channel failure.
func NewDelivery(err error, message string) *AppError {
	return Wrap(err, ErrorTypeDelivery, message)
}

// NewStore reports an unreachable or erroring backing store.
func NewStore(err error) *AppError {
	return Wrap(err, ErrorTypeStore, "store error")
}

// NewInternal reports an unexpected internal error.
func NewInternal(message string) *AppError {
	return New(ErrorTypeInternal, message)
}

// IsValidation reports whether err is a validation error
func IsValidation(err error) bool { return isType(err, ErrorTypeValidation) }

// IsNotFound reports whether err is a not-found/expired error
func IsNotFound(err error) bool { return isType(err, ErrorTypeNotFound) }

// IsMismatch reports whether err is a mismatch error
func IsMismatch(err error) bool { return isType(err, ErrorTypeMismatch) }

// IsDelivery reports whether err is a delivery failure
func IsDelivery(err error) bool { return isType(err, ErrorTypeDelivery) }

// IsStore reports whether err is a store failure
func IsStore(err error) bool { return isType(err, ErrorTypeStore) }

func isType(err error, errType ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == errType
	}
	return false
}
