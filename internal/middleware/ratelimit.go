package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/httprate"

	"github.com/pulseboard/pulseboard/internal/auth"
	"github.com/pulseboard/pulseboard/internal/cache"
)

// IPLimiter takes one token from the bucket of an IP.
type IPLimiter interface {
	CheckIPRateLimit(ctx context.Context, ip string, ratePerSecond, burst int) (*cache.RateLimitResult, error)
}

// RateLimitConfig holds configuration for rate limiting middleware.
type RateLimitConfig struct {
	Logger  *slog.Logger
	Limiter IPLimiter

	// API rate limiting (per authenticated user, in process)
	APIEnabled   bool
	APIPerMinute int

	// Redirect rate limiting (per IP, shared through Redis)
	RedirectEnabled bool
	RedirectRPS     int
	RedirectBurst   int

	// RedirectLimited answers visitors over the redirect limit. The redirect
	// path never shows an error page, so this is normally the redirect
	// handler's fallback. Nil answers with a 429 envelope.
	RedirectLimited http.HandlerFunc
}

// RateLimitAPI returns middleware that rate limits API requests per user.
// Must be applied after Auth middleware; requests without a principal are
// keyed by IP.
func RateLimitAPI(cfg RateLimitConfig) func(http.Handler) http.Handler {
	if !cfg.APIEnabled || cfg.APIPerMinute <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}

	return httprate.Limit(
		cfg.APIPerMinute,
		time.Minute,
		httprate.WithKeyFuncs(keyByUser),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			cfg.Logger.WarnContext(r.Context(), "rate_limit_exceeded",
				slog.String("type", "api"),
				slog.String("user_id", auth.UserIDFromContext(r.Context())),
				slog.String("endpoint", r.Method+" "+r.URL.Path),
			)
			writeRateLimitError(w, time.Minute)
		}),
	)
}

func keyByUser(r *http.Request) (string, error) {
	if userID := auth.UserIDFromContext(r.Context()); userID != "" {
		return "user:" + userID, nil
	}
	return httprate.KeyByIP(r)
}

// RateLimitIP returns middleware that rate limits requests per IP.
// Used for the redirect endpoint to prevent abuse.
func RateLimitIP(cfg RateLimitConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.RedirectEnabled || cfg.Limiter == nil {
				next.ServeHTTP(w, r)
				return
			}

			ip := ClientIP(r)

			result, err := cfg.Limiter.CheckIPRateLimit(
				r.Context(),
				ip,
				cfg.RedirectRPS,
				cfg.RedirectBurst,
			)
			if err != nil {
				cfg.Logger.ErrorContext(r.Context(), "ip_rate_limit_check_failed",
					slog.String("error", err.Error()),
				)
				// Fail open - allow request
				next.ServeHTTP(w, r)
				return
			}

			if !result.Allowed {
				cfg.Logger.WarnContext(r.Context(), "rate_limit_exceeded",
					slog.String("type", "redirect"),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.Int64("retry_after_seconds", int64(result.RetryAfter.Seconds())),
				)

				if cfg.RedirectLimited != nil {
					w.Header().Set("Retry-After", retryAfterSeconds(result.RetryAfter))
					cfg.RedirectLimited(w, r)
					return
				}
				writeRateLimitError(w, result.RetryAfter)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// writeRateLimitError writes a 429 Too Many Requests response.
func writeRateLimitError(w http.ResponseWriter, retryAfter time.Duration) {
	seconds := retryAfterSeconds(retryAfter)
	w.Header().Set("Retry-After", seconds)
	writeJSONError(w, http.StatusTooManyRequests, "RATE_LIMITED",
		fmt.Sprintf("Rate limit exceeded. Retry after %s seconds.", seconds))
}

// retryAfterSeconds renders d as whole seconds, at least 1.
func retryAfterSeconds(d time.Duration) string {
	seconds := int(d.Seconds())
	if seconds < 1 {
		seconds = 1
	}
	return strconv.Itoa(seconds)
}

// ClientIP returns the caller's IP without port. chi's RealIP middleware is
// expected to have applied X-Forwarded-For / X-Real-IP to RemoteAddr.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
