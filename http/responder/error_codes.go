package responder

import apperrors "github.com/ooiai/neocrates/errors"

// Application error codes carried inside the response envelope.
const (
	// 4xxx - 客户端错误
	ErrCodeBadRequest       = 4000
	ErrCodeBindFailed       = 4001
	ErrCodeValidationFailed = 4002
	ErrCodeNotFound         = 4003
	ErrCodeMismatch         = 4004

	// 5xxx - 服务端错误
	ErrCodeInternalServer  = 5000
	ErrCodeDelivery        = 5001
	ErrCodeStore           = 5002
	ErrCodeExternalService = 5003
)

var errorMessages = map[int]string{
	ErrCodeBadRequest:       "Bad Request",
	ErrCodeBindFailed:       "Invalid Request Body",
	ErrCodeValidationFailed: "Validation Failed",
	ErrCodeNotFound:         "Resource Not Found",
	ErrCodeMismatch:         "Verification Failed",
	ErrCodeInternalServer:   "Internal Server Error",
	ErrCodeDelivery:         "Delivery Failed",
	ErrCodeStore:            "Store Unavailable",
	ErrCodeExternalService:  "External Service Error",
}

// GetErrorMessage returns the default message for an error code.
func GetErrorMessage(code int) string {
	if msg, ok := errorMessages[code]; ok {
		return msg
	}
	return "Unknown Error"
}

// NewError creates an Error with code and message, falling back to the
// default message for the code.
func NewError(code int, message string) Error {
	if message == "" {
		message = GetErrorMessage(code)
	}
	return Error{
		Code:    code,
		Message: message,
	}
}

// NewErrorWithDetails creates an Error carrying structured details.
func NewErrorWithDetails(code int, message string, details any) Error {
	err := NewError(code, message)
	err.Details = details
	return err
}

// errorCode maps a library error type to an envelope code.
func errorCode(t apperrors.ErrorType) int {
	switch t {
	case apperrors.ErrorTypeValidation:
		return ErrCodeValidationFailed
	case apperrors.ErrorTypeNotFound:
		return ErrCodeNotFound
	case apperrors.ErrorTypeMismatch:
		return ErrCodeMismatch
	case apperrors.ErrorTypeDelivery:
		return ErrCodeDelivery
	case apperrors.ErrorTypeStore:
		return ErrCodeStore
	case apperrors.ErrorTypeExternal:
		return ErrCodeExternalService
	default:
		return ErrCodeInternalServer
	}
}
