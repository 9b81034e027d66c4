// Package middleware provides HTTP middleware components.
package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/pulseboard/pulseboard/internal/logctx"
)

const (
	requestIDHeader = "X-Request-ID"
	traceIDHeader   = "X-Trace-ID"

	maxCorrelationIDLength = 128
)

// RequestID tags the request with a correlation ID and echoes it back. An
// inbound X-Request-ID is reused when it is short printable ASCII; anything
// else is replaced by a fresh UUID so clients cannot inject into log lines.
// The IDs travel in the context through logctx, so every *Context log call
// downstream carries them.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(requestIDHeader)
		if !validCorrelationID(requestID) {
			requestID = uuid.NewString()
		}
		traceID := r.Header.Get(traceIDHeader)
		if !validCorrelationID(traceID) {
			traceID = ""
		}

		ctx := logctx.WithTraceID(logctx.WithRequestID(r.Context(), requestID), traceID)

		w.Header().Set(requestIDHeader, requestID)
		if traceID != "" {
			w.Header().Set(traceIDHeader, traceID)
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func validCorrelationID(id string) bool {
	if id == "" || len(id) > maxCorrelationIDLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] < 0x21 || id[i] > 0x7e {
			return false
		}
	}
	return true
}
