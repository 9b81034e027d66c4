package middleware

import (
	"log/slog"
	"net/http"

	"github.com/pulseboard/pulseboard/internal/auth"
)

// TokenVerifier validates a bearer token.
type TokenVerifier interface {
	Verify(token string) (*auth.Principal, error)
}

// AuthConfig holds configuration for the auth middleware.
type AuthConfig struct {
	Logger   *slog.Logger
	Verifier TokenVerifier
}

// Auth returns a middleware that requires a valid bearer session token and
// injects the principal into the request context.
func Auth(cfg AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := auth.BearerToken(r.Header.Get("Authorization"))

			principal, err := cfg.Verifier.Verify(token)
			if err != nil {
				cfg.Logger.WarnContext(r.Context(), "authentication_failed",
					slog.String("reason", err.Error()),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
				)
				writeAuthError(w)
				return
			}

			ctx := auth.ContextWithPrincipal(r.Context(), principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// writeAuthError writes a 401 Unauthorized response.
// Uses the same message for all auth failures to prevent enumeration.
func writeAuthError(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="pulseboard"`)
	writeJSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid or missing session token")
}
