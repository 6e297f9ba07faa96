package responder

import (
	"net/http"

	apperrors "github.com/ooiai/neocrates/errors"
	"github.com/ooiai/neocrates/http/middleware"
	"github.com/ooiai/neocrates/json"
)

// Option customizes response metadata.
type Option func(*Meta)

// WithTraceID sets the trace id in the response meta.
func WithTraceID(traceID string) Option {
	return func(m *Meta) {
		m.TraceId = traceID
	}
}

// WithTook records the request processing time in milliseconds.
func WithTook(millis int64) Option {
	return func(m *Meta) {
		m.Took = millis
	}
}

// newMeta builds response metadata, pulling the trace id from the
// request context unless an option overrides it.
func newMeta(r *http.Request, opts ...Option) Meta {
	var meta Meta
	if r != nil {
		meta.TraceId = middleware.GetTraceIDFromRequest(r)
	}
	for _, opt := range opts {
		opt(&meta)
	}
	return meta
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		fallback := []byte(`{"error":{"code":5000,"message":"encode failed"}}`)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write(fallback)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(raw)
}

// Write sends a success response with data.
func Write(w http.ResponseWriter, r *http.Request, status int, data any, opts ...Option) {
	res := &Response{
		Data: data,
		Meta: newMeta(r, opts...),
	}
	writeJSON(w, status, res)
}

// WriteError sends an error response.
func WriteError(w http.ResponseWriter, r *http.Request, status int, err Error, opts ...Option) {
	res := &Response{
		Error: &err,
		Meta:  newMeta(r, opts...),
	}
	writeJSON(w, status, res)
}

// OK responds with 200 OK and data.
func OK(w http.ResponseWriter, r *http.Request, data any, opts ...Option) {
	Write(w, r, http.StatusOK, data, opts...)
}

// NoContent responds with 204 No Content.
func NoContent(w http.ResponseWriter, r *http.Request) {
	if traceID := middleware.GetTraceIDFromRequest(r); traceID != "" {
		w.Header().Set(middleware.TraceIDHeader, traceID)
	}
	w.WriteHeader(http.StatusNoContent)
}

// BadRequest responds with 400 Bad Request.
func BadRequest(w http.ResponseWriter, r *http.Request, message string, opts ...Option) {
	WriteError(w, r, http.StatusBadRequest, NewError(ErrCodeBadRequest, message), opts...)
}

// NotFound responds with 404 Not Found.
func NotFound(w http.ResponseWriter, r *http.Request, message string, opts ...Option) {
	WriteError(w, r, http.StatusNotFound, NewError(ErrCodeNotFound, message), opts...)
}

// ValidationError responds with 400 Bad Request and validation details.
func ValidationError(w http.ResponseWriter, r *http.Request, details any, opts ...Option) {
	WriteError(w, r, http.StatusBadRequest,
		NewErrorWithDetails(ErrCodeValidationFailed, "", details), opts...)
}

// InternalServerError responds with 500 Internal Server Error.
func InternalServerError(w http.ResponseWriter, r *http.Request, message string, opts ...Option) {
	WriteError(w, r, http.StatusInternalServerError, NewError(ErrCodeInternalServer, message), opts...)
}

// WriteAppError maps a library error to its HTTP status and envelope
// code. Non-AppError values are treated as internal errors.
func WriteAppError(w http.ResponseWriter, r *http.Request, err error, opts ...Option) {
	appErr := apperrors.FromError(err)
	WriteError(w, r, appErr.Status(), NewError(errorCode(appErr.Type), appErr.Message), opts...)
}
