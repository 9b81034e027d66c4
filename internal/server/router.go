package server

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/pulseboard/pulseboard/internal/handler"
	"github.com/pulseboard/pulseboard/internal/middleware"
)

// Handlers groups the endpoint handlers mounted by NewRouter.
type Handlers struct {
	Health      *handler.HealthHandler
	Redirect    *handler.RedirectHandler
	Performance *handler.PerformanceHandler
	Analytics   *handler.AnalyticsHandler
	Links       *handler.LinkHandler
	Metrics     http.Handler
}

// RouterConfig holds the middleware settings of the route table.
type RouterConfig struct {
	Logger      *slog.Logger
	Auth        middleware.AuthConfig
	RateLimit   middleware.RateLimitConfig
	Security    middleware.SecurityConfig
	CORS        middleware.CORSConfig
	MaxBodySize int64

	// FallbackURL is where a panicking redirect lands.
	FallbackURL string
}

func isRedirectPath(r *http.Request) bool {
	return strings.HasPrefix(r.URL.Path, "/r/")
}

// NewRouter builds the route table. Health, metrics and redirects are public;
// everything under /api/v1 requires a session token.
func NewRouter(h Handlers, cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recoverer(cfg.Logger, cfg.FallbackURL, isRedirectPath))
	r.Use(middleware.Security(cfg.Security))

	r.Get("/healthz", h.Health.Healthz)
	r.Get("/readyz", h.Health.Readyz)
	if h.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.Metrics)
	}

	redirectLimit := cfg.RateLimit
	if redirectLimit.RedirectLimited == nil {
		redirectLimit.RedirectLimited = h.Redirect.Limited
	}
	r.With(middleware.RateLimitIP(redirectLimit)).Get("/r/{slug}", h.Redirect.Redirect)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.CORS(cfg.CORS))
		r.Use(middleware.Auth(cfg.Auth))
		r.Use(middleware.RateLimitAPI(cfg.RateLimit))
		r.Use(middleware.MaxBodySize(cfg.MaxBodySize))

		r.Get("/products/{productID}/performance", h.Performance.Get)
		r.Get("/products/{productID}/links", h.Links.List)
		r.Get("/analytics/summary", h.Analytics.Summary)

		r.Route("/links", func(r chi.Router) {
			r.Post("/", h.Links.Create)
			r.Get("/{id}", h.Links.Get)
			r.Get("/{id}/qr", h.Links.QR)
		})
	})

	r.NotFound(handler.NotFound)
	r.MethodNotAllowed(handler.MethodNotAllowed)

	return r
}
