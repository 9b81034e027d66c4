package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/pulseboard/pulseboard/internal/auth"
	"github.com/pulseboard/pulseboard/internal/cache"
	"github.com/pulseboard/pulseboard/internal/metrics"
	"github.com/pulseboard/pulseboard/internal/model"
	"github.com/pulseboard/pulseboard/internal/repository"
)

const maxDestinationLength = 2048

// LinkStore is the persistence the link service needs.
type LinkStore interface {
	ProductOwners
	CreateLink(ctx context.Context, link *model.Link) error
	GetLinkByID(ctx context.Context, id string) (*model.Link, error)
	GetLinkBySlug(ctx context.Context, slug string) (*model.Link, error)
	ListLinks(ctx context.Context, productID string) ([]model.Link, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	GetCampaignByID(ctx context.Context, id string) (*model.Campaign, error)
	GetContentPieceByID(ctx context.Context, id string) (*model.ContentPiece, error)
}

// LinkCache is the slug cache used on the redirect path.
type LinkCache interface {
	GetLink(ctx context.Context, slug string) (*model.Link, error)
	SetLink(ctx context.Context, link *model.Link) error
	IsNegativelyCached(ctx context.Context, slug string) (bool, error)
	SetNegativeCache(ctx context.Context, slug string) error
}

// LinkService handles tracked link issuance and resolution.
type LinkService struct {
	store   LinkStore
	cache   LinkCache
	baseURL string
	logger  *slog.Logger
	metrics metrics.Recorder
	now     func() time.Time
}

// NewLinkService creates a new LinkService.
func NewLinkService(store LinkStore, linkCache LinkCache, baseURL string, logger *slog.Logger, recorder metrics.Recorder) *LinkService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &LinkService{
		store:   store,
		cache:   linkCache,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		logger:  logger.With("component", "service.link"),
		metrics: recorder,
		now:     time.Now,
	}
}

// CreateTrackedLinkInput defines input for issuing a tracked link.
type CreateTrackedLinkInput struct {
	ProductID      string
	CampaignID     string
	ContentPieceID string
	DestinationURL string
}

// TrackedLink is a newly issued link with its public URL.
type TrackedLink struct {
	Link       *model.Link
	TrackedURL string
}

// CreateTrackedLink issues a short link whose UTM fields snapshot the owning
// campaign and content piece. The caller must own the product.
func (s *LinkService) CreateTrackedLink(ctx context.Context, input CreateTrackedLinkInput) (*TrackedLink, error) {
	if err := authorizeProduct(ctx, s.store, input.ProductID); err != nil {
		return nil, err
	}
	if err := validateDestination(input.DestinationURL); err != nil {
		return nil, err
	}

	var campaign *model.Campaign
	if input.CampaignID != "" {
		c, err := s.store.GetCampaignByID(ctx, input.CampaignID)
		if err != nil {
			if errors.Is(err, repository.ErrCampaignNotFound) {
				return nil, ErrCampaignNotFound
			}
			return nil, err
		}
		if c.ProductID != input.ProductID {
			return nil, ErrCampaignProductMismatch
		}
		campaign = c
	}

	var piece *model.ContentPiece
	if input.ContentPieceID != "" {
		p, err := s.store.GetContentPieceByID(ctx, input.ContentPieceID)
		if err != nil {
			if errors.Is(err, repository.ErrContentPieceNotFound) {
				return nil, ErrContentPieceNotFound
			}
			return nil, err
		}
		if p.ProductID != input.ProductID {
			return nil, ErrContentProductMismatch
		}
		piece = p
	}

	link := &model.Link{
		ID:             ulid.Make().String(),
		ProductID:      input.ProductID,
		DestinationURL: input.DestinationURL,
		UTM:            DeriveUTM(campaign, piece),
		CreatedAt:      s.now().UTC(),
	}
	if campaign != nil {
		link.CampaignID = &campaign.ID
	}
	if piece != nil {
		link.ContentPieceID = &piece.ID
	}

	if err := s.insertWithUniqueSlug(ctx, link); err != nil {
		return nil, err
	}

	s.metrics.IncLinkCreated()
	if err := s.cache.SetLink(ctx, link); err != nil {
		s.logger.WarnContext(ctx, "link_cache_write_failed", "slug", link.Slug, "error", err)
	}

	s.logger.InfoContext(ctx, "tracked_link_created",
		"link_id", link.ID,
		"slug", link.Slug,
		"product_id", link.ProductID,
		"campaign_id", input.CampaignID,
	)

	return &TrackedLink{Link: link, TrackedURL: s.TrackedURL(link.Slug)}, nil
}

// insertWithUniqueSlug assigns a fresh slug and inserts the link, retrying on
// collisions.
func (s *LinkService) insertWithUniqueSlug(ctx context.Context, link *model.Link) error {
	for i := 0; i < maxSlugRetries; i++ {
		slug, err := generateSlug()
		if err != nil {
			return fmt.Errorf("generate slug: %w", err)
		}

		exists, err := s.store.SlugExists(ctx, slug)
		if err != nil {
			return err
		}
		if exists {
			continue
		}

		link.Slug = slug
		err = s.store.CreateLink(ctx, link)
		if errors.Is(err, repository.ErrSlugExists) {
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to create link: %w", err)
		}
		return nil
	}
	return ErrSlugExhausted
}

// GetLink retrieves a link by ID. Links of products the caller does not own
// are reported as ErrLinkNotFound.
func (s *LinkService) GetLink(ctx context.Context, id string) (*model.Link, error) {
	if auth.UserIDFromContext(ctx) == "" {
		return nil, ErrUnauthenticated
	}

	link, err := s.store.GetLinkByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrLinkNotFound) {
			return nil, ErrLinkNotFound
		}
		return nil, err
	}

	if err := authorizeProduct(ctx, s.store, link.ProductID); err != nil {
		if errors.Is(err, ErrProductNotFound) {
			return nil, ErrLinkNotFound
		}
		return nil, err
	}
	return link, nil
}

// ListLinks returns a product's links, newest first. A non-empty campaignID
// keeps only that campaign's links.
func (s *LinkService) ListLinks(ctx context.Context, productID, campaignID string) ([]model.Link, error) {
	if err := authorizeProduct(ctx, s.store, productID); err != nil {
		return nil, err
	}

	links, err := s.store.ListLinks(ctx, productID)
	if err != nil {
		return nil, err
	}

	out := links[:0]
	for _, l := range links {
		if campaignID != "" && (l.CampaignID == nil || *l.CampaignID != campaignID) {
			continue
		}
		out = append(out, l)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

// Resolve looks up a slug for the redirect path. The cache is consulted
// first; a negative entry short-circuits to ErrLinkNotFound. Cache errors
// fall through to Postgres, and database hits are written back.
func (s *LinkService) Resolve(ctx context.Context, slug string) (*model.Link, error) {
	link, err := s.cache.GetLink(ctx, slug)
	if err == nil {
		s.metrics.IncRedirectCacheHit()
		return link, nil
	}

	if errors.Is(err, cache.ErrCacheMiss) {
		s.metrics.IncRedirectCacheMiss()
		negative, negErr := s.cache.IsNegativelyCached(ctx, slug)
		if negErr == nil && negative {
			return nil, ErrLinkNotFound
		}
	} else {
		s.logger.Warn("link_cache_read_failed", "slug", slug, "error", err)
	}

	link, err = s.store.GetLinkBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, repository.ErrLinkNotFound) {
			if cacheErr := s.cache.SetNegativeCache(ctx, slug); cacheErr != nil {
				s.logger.Debug("negative_cache_write_failed", "slug", slug, "error", cacheErr)
			}
			return nil, ErrLinkNotFound
		}
		return nil, err
	}

	if err := s.cache.SetLink(ctx, link); err != nil {
		s.logger.Debug("link_cache_backfill_failed", "slug", slug, "error", err)
	}

	return link, nil
}

// TrackedURL returns the public redirect URL for a slug.
func (s *LinkService) TrackedURL(slug string) string {
	return s.baseURL + "/r/" + slug
}

func validateDestination(dest string) error {
	if dest == "" {
		return ErrInvalidDestination
	}
	if len(dest) > maxDestinationLength {
		return ErrURLTooLong
	}

	parsed, err := url.Parse(dest)
	if err != nil {
		return ErrInvalidDestination
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return ErrInvalidDestination
	}
	if parsed.Host == "" {
		return ErrInvalidDestination
	}
	return nil
}
