// Package main is the entrypoint for the Pulseboard API server.
package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/pulseboard/pulseboard/internal/analytics"
	"github.com/pulseboard/pulseboard/internal/auth"
	"github.com/pulseboard/pulseboard/internal/cache"
	"github.com/pulseboard/pulseboard/internal/config"
	"github.com/pulseboard/pulseboard/internal/handler"
	"github.com/pulseboard/pulseboard/internal/logctx"
	"github.com/pulseboard/pulseboard/internal/metrics"
	"github.com/pulseboard/pulseboard/internal/middleware"
	"github.com/pulseboard/pulseboard/internal/repository"
	"github.com/pulseboard/pulseboard/internal/scoring"
	"github.com/pulseboard/pulseboard/internal/server"
	"github.com/pulseboard/pulseboard/internal/service"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)

	repo, err := repository.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error(
			"failed to connect to database",
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		os.Exit(1)
	}
	defer repo.Close()
	logger.Info("connected to database")

	cacheClient, err := cache.New(ctx, cfg.RedisURL)
	if err != nil {
		logger.Error(
			"failed to connect to Redis",
			slog.String("error", sanitizeError(err, cfg.RedisURL)),
			slog.String("redis_url", redactURL(cfg.RedisURL)),
		)
		os.Exit(1)
	}
	defer cacheClient.Close()
	logger.Info("connected to Redis")

	recorder := metrics.NewPrometheus("pulseboard")

	// Services
	linkService := service.NewLinkService(repo, cacheClient, cfg.BaseURL, logger, recorder)
	builder := scoring.NewBuilder(repo, logger, recorder)
	performanceService := service.NewPerformanceService(builder, repo)
	analyticsService := service.NewAnalyticsService(repo, logger)

	// Click capture
	publisher := analytics.NewPublisher(cacheClient.Client(), logger, recorder)
	redirectCfg := handler.RedirectConfig{
		Resolver:    linkService,
		Publisher:   publisher,
		Hasher:      analytics.NewIPHasher(cfg.IPHashSalt),
		FallbackURL: cfg.RedirectFallbackURL(),
		Logger:      logger,
		Metrics:     recorder,
	}
	if cfg.GeoIPPath != "" {
		geo, err := analytics.OpenGeoIP(cfg.GeoIPPath)
		if err != nil {
			logger.Warn("geoip_unavailable", "path", cfg.GeoIPPath, "error", err)
		} else {
			defer geo.Close()
			redirectCfg.Geo = geo
		}
	}

	handlers := server.Handlers{
		Health:      handler.NewHealthHandler(repo, cacheClient, logger),
		Redirect:    handler.NewRedirectHandler(redirectCfg),
		Performance: handler.NewPerformanceHandler(performanceService, logger),
		Analytics:   handler.NewAnalyticsHandler(analyticsService, logger),
		Links:       handler.NewLinkHandler(linkService, logger),
		Metrics:     recorder.Handler(),
	}

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = cfg.GetCORSAllowedOrigins()

	router := server.NewRouter(handlers, server.RouterConfig{
		Logger: logger,
		Auth: middleware.AuthConfig{
			Logger:   logger,
			Verifier: auth.NewVerifier(cfg.JWTSecret, cfg.JWTAudience, cfg.JWTIssuer),
		},
		RateLimit: middleware.RateLimitConfig{
			Logger:          logger,
			Limiter:         cacheClient,
			APIEnabled:      cfg.RateLimitAPIEnabled,
			APIPerMinute:    cfg.APIRateLimitPerMinute,
			RedirectEnabled: cfg.RateLimitRedirectEnabled,
			RedirectRPS:     cfg.RateLimitRedirectRPS,
			RedirectBurst:   cfg.RateLimitRedirectBurst,
		},
		Security:    middleware.SecurityConfig{IsDevelopment: cfg.IsDevelopment()},
		CORS:        corsCfg,
		MaxBodySize: cfg.MaxRequestBodySize,
		FallbackURL: cfg.RedirectFallbackURL(),
	})

	srv := server.New(router, server.Options{
		Port:            cfg.AppPort,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, logger)

	if cfg.AnalyticsWorkerEnabled {
		worker := analytics.NewWorker(
			cacheClient.Client(),
			repository.NewClickRepository(repo),
			analytics.WorkerConfig{BatchSize: cfg.AnalyticsBatchSize},
			logger,
			recorder,
		)

		go func() {
			if err := worker.Run(context.Background()); err != nil {
				logger.Error("click_worker_stopped", "error", err)
			}
		}()
		srv.OnShutdown("click_worker", worker.Shutdown)
	}

	logger.Info("starting server",
		"port", cfg.AppPort,
		"base_url", cfg.BaseURL,
		"env", cfg.AppEnv,
		"analytics_worker", cfg.AnalyticsWorkerEnabled,
	)

	if err := srv.Run(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}

	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(logctx.NewHandler(h))
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
