package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

type contextKey string

const (
	// TraceIDKey is the context key holding the request trace id.
	TraceIDKey contextKey = "trace_id"
	// TraceIDHeader is the HTTP header carrying the trace id.
	TraceIDHeader = "X-Trace-ID"
)

// TraceID propagates the caller's X-Trace-ID header, generating a new
// UUID when absent, and echoes it on the response.
func TraceID() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			traceID := r.Header.Get(TraceIDHeader)
			if traceID == "" {
				traceID = uuid.NewString()
			}

			w.Header().Set(TraceIDHeader, traceID)

			ctx := context.WithValue(r.Context(), TraceIDKey, traceID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetTraceID retrieves the trace id from a context.
func GetTraceID(ctx context.Context) string {
	if traceID, ok := ctx.Value(TraceIDKey).(string); ok {
		return traceID
	}
	return ""
}

// GetTraceIDFromRequest retrieves the trace id from a request context.
func GetTraceIDFromRequest(r *http.Request) string {
	return GetTraceID(r.Context())
}
