package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"
)

// Recoverer turns a handler panic into a logged panic_recovered event. API
// callers get the JSON 500 envelope; redirect visitors are sent to
// fallbackURL so a crash never shows an error page on a tracked link. An
// empty fallbackURL answers every route with the envelope.
//
// http.ErrAbortHandler is re-panicked so net/http can drop the connection.
func Recoverer(logger *slog.Logger, fallbackURL string, isRedirect func(*http.Request) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rvr := recover()
				if rvr == nil {
					return
				}
				if err, ok := rvr.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(rvr)
				}

				logger.ErrorContext(r.Context(), "panic_recovered",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.Any("panic", rvr),
					slog.String("stack", string(debug.Stack())),
				)

				if fallbackURL != "" && isRedirect != nil && isRedirect(r) {
					http.Redirect(w, r, fallbackURL, http.StatusFound)
					return
				}
				writeJSONError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
			}()

			next.ServeHTTP(w, r)
		})
	}
}
