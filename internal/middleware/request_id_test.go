package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pulseboard/pulseboard/internal/logctx"
)

func TestRequestID(t *testing.T) {
	tests := []struct {
		name        string
		inbound     string
		trace       string
		wantReuse   bool
		wantTraceID string
	}{
		{name: "generated when absent", wantReuse: false},
		{name: "inbound reused", inbound: "edge-7f3a", wantReuse: true},
		{name: "inbound with spaces replaced", inbound: "a b\nforged=1", wantReuse: false},
		{name: "inbound too long replaced", inbound: strings.Repeat("x", 200), wantReuse: false},
		{name: "trace propagated", inbound: "edge-1", trace: "trace-9", wantReuse: true, wantTraceID: "trace-9"},
		{name: "bad trace dropped", trace: "bad trace", wantTraceID: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ctxRequestID, ctxTraceID string
			h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				ctxRequestID = logctx.RequestID(r.Context())
				ctxTraceID = logctx.TraceID(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/r/ab12cd34", nil)
			if tt.inbound != "" {
				req.Header.Set("X-Request-ID", tt.inbound)
			}
			if tt.trace != "" {
				req.Header.Set("X-Trace-ID", tt.trace)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			got := rec.Header().Get("X-Request-ID")
			if got == "" || got != ctxRequestID {
				t.Fatalf("header %q and context %q must match and be set", got, ctxRequestID)
			}
			if tt.wantReuse && got != tt.inbound {
				t.Errorf("request ID = %q, want %q", got, tt.inbound)
			}
			if !tt.wantReuse && got == tt.inbound {
				t.Errorf("request ID %q should have been replaced", got)
			}
			if ctxTraceID != tt.wantTraceID {
				t.Errorf("trace ID = %q, want %q", ctxTraceID, tt.wantTraceID)
			}
		})
	}
}
