package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pulseboard/pulseboard/internal/analytics"
	"github.com/pulseboard/pulseboard/internal/metrics"
	"github.com/pulseboard/pulseboard/internal/middleware"
	"github.com/pulseboard/pulseboard/internal/model"
	"github.com/pulseboard/pulseboard/internal/service"
)

// LinkResolver resolves a slug on the redirect path.
type LinkResolver interface {
	Resolve(ctx context.Context, slug string) (*model.Link, error)
}

// ClickPublisher records a click without blocking.
type ClickPublisher interface {
	PublishAsync(event analytics.ClickEventPayload)
}

// IPHasher turns a visitor IP into a one-way token.
type IPHasher interface {
	Hash(ip string) string
}

// RedirectConfig wires the redirect handler.
type RedirectConfig struct {
	Resolver    LinkResolver
	Publisher   ClickPublisher
	Hasher      IPHasher
	Geo         analytics.CountryResolver // optional
	FallbackURL string
	Logger      *slog.Logger
	Metrics     metrics.Recorder
}

// RedirectHandler handles tracked-link redirects.
type RedirectHandler struct {
	resolver    LinkResolver
	publisher   ClickPublisher
	hasher      IPHasher
	geo         analytics.CountryResolver
	fallbackURL string
	logger      *slog.Logger
	metrics     metrics.Recorder
	now         func() time.Time
}

// NewRedirectHandler creates a new RedirectHandler.
func NewRedirectHandler(cfg RedirectConfig) *RedirectHandler {
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.NewNoop()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &RedirectHandler{
		resolver:    cfg.Resolver,
		publisher:   cfg.Publisher,
		hasher:      cfg.Hasher,
		geo:         cfg.Geo,
		fallbackURL: cfg.FallbackURL,
		logger:      cfg.Logger.With("component", "handler.redirect"),
		metrics:     cfg.Metrics,
		now:         time.Now,
	}
}

// Redirect handles GET /r/{slug}. It always answers with a 302: to the
// link's destination with UTM parameters applied, or to the fallback URL
// when the slug is malformed, unknown, or cannot be resolved.
func (h *RedirectHandler) Redirect(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	slug := chi.URLParam(r, "slug")
	defer func() {
		h.metrics.ObserveRedirectDuration(time.Since(start))
	}()

	if !service.ValidSlug(slug) {
		h.fallback(w, r, slug, "invalid_slug", nil)
		return
	}

	link, err := h.resolver.Resolve(r.Context(), slug)
	if err != nil {
		if errors.Is(err, service.ErrLinkNotFound) {
			h.fallback(w, r, slug, "not_found", nil)
			return
		}
		h.fallback(w, r, slug, "error", err)
		return
	}

	h.recordClick(r, link)

	target := service.ApplyUTM(link.DestinationURL, link.UTM)

	h.logger.InfoContext(r.Context(), "redirect_success",
		"slug", slug,
		"link_id", link.ID,
		"duration_ms", float64(time.Since(start).Microseconds())/1000,
	)

	http.Redirect(w, r, target, http.StatusFound)
}

// recordClick builds the click payload and hands it to the publisher.
// The raw IP never leaves this function.
func (h *RedirectHandler) recordClick(r *http.Request, link *model.Link) {
	if h.publisher == nil {
		return
	}

	ip := middleware.ClientIP(r)
	ua := r.UserAgent()

	country := analytics.ExtractCountryCode(r.Header.Get("CF-IPCountry"))
	if country == "" && h.geo != nil {
		country = analytics.ExtractCountryCode(h.geo.Country(ip))
	}

	var ipHash string
	if h.hasher != nil {
		ipHash = h.hasher.Hash(ip)
	}

	h.publisher.PublishAsync(analytics.ClickEventPayload{
		Slug:        link.Slug,
		LinkID:      link.ID,
		Referer:     analytics.TruncateMeta(r.Referer()),
		UserAgent:   analytics.TruncateMeta(ua),
		IPHash:      ipHash,
		Device:      string(analytics.DeviceFromUserAgent(ua)),
		CountryCode: country,
		ClickedAt:   h.now().UnixMilli(),
	})
}

// Limited answers a visitor over the redirect rate limit. The click is not
// recorded; the visitor still lands on the fallback page.
func (h *RedirectHandler) Limited(w http.ResponseWriter, r *http.Request) {
	h.fallback(w, r, chi.URLParam(r, "slug"), "rate_limited", nil)
}

func (h *RedirectHandler) fallback(w http.ResponseWriter, r *http.Request, slug, reason string, err error) {
	h.metrics.IncRedirectFallback(reason)

	if err != nil {
		h.logger.ErrorContext(r.Context(), "redirect_fallback", "slug", slug, "reason", reason, "error", err)
	} else {
		h.logger.InfoContext(r.Context(), "redirect_fallback", "slug", slug, "reason", reason)
	}

	http.Redirect(w, r, h.fallbackURL, http.StatusFound)
}
