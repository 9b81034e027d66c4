package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/pulseboard/pulseboard/internal/metrics"
	"github.com/pulseboard/pulseboard/internal/model"
)

func newTestLinkService(store *fakeStore, c *fakeCache) (*LinkService, *metrics.InMemoryRecorder) {
	rec := metrics.NewInMemory()
	svc := NewLinkService(store, c, "https://go.example.com/", nil, rec)
	svc.now = func() time.Time { return time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC) }
	return svc, rec
}

func TestValidateDestination(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		dest    string
		wantErr error
	}{
		{"empty", "", ErrInvalidDestination},
		{"invalid_scheme", "ftp://example.com", ErrInvalidDestination},
		{"missing_host", "https://", ErrInvalidDestination},
		{"too_long", "https://example.com/" + strings.Repeat("a", maxDestinationLength), ErrURLTooLong},
		{"valid", "https://example.com/path", nil},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if err := validateDestination(tt.dest); !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestCreateTrackedLink_Campaign(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.campaigns["c1"] = &model.Campaign{ID: "c1", ProductID: "prod-1", Channel: "Instagram", Angle: "Pain Point", Category: model.CategorySocial}
	store.pieces["p1"] = &model.ContentPiece{ID: "p1", ProductID: "prod-1", Title: "Reel #1"}
	c := newFakeCache()
	svc, rec := newTestLinkService(store, c)

	out, err := svc.CreateTrackedLink(authed(), CreateTrackedLinkInput{
		ProductID:      "prod-1",
		CampaignID:     "c1",
		ContentPieceID: "p1",
		DestinationURL: "https://shop.example.com/offer",
	})
	if err != nil {
		t.Fatalf("CreateTrackedLink() error = %v", err)
	}

	link := out.Link
	if !ValidSlug(link.Slug) {
		t.Errorf("slug %q is not valid", link.Slug)
	}
	if out.TrackedURL != "https://go.example.com/r/"+link.Slug {
		t.Errorf("TrackedURL = %s", out.TrackedURL)
	}
	want := model.UTM{Source: "instagram", Medium: "social", Campaign: "pain-point", Content: "reel-1"}
	if link.UTM != want {
		t.Errorf("UTM = %+v, want %+v", link.UTM, want)
	}
	if !link.HasCampaign() || *link.CampaignID != "c1" {
		t.Errorf("CampaignID = %v", link.CampaignID)
	}
	if link.ContentPieceID == nil || *link.ContentPieceID != "p1" {
		t.Errorf("ContentPieceID = %v", link.ContentPieceID)
	}
	if link.ClickCount != 0 {
		t.Errorf("ClickCount = %d, want 0", link.ClickCount)
	}
	if _, ok := store.links[link.ID]; !ok {
		t.Error("link not persisted")
	}
	if _, ok := c.links[link.Slug]; !ok {
		t.Error("link not cached")
	}
	if got := rec.Snapshot().LinksCreated; got != 1 {
		t.Errorf("LinksCreated = %d, want 1", got)
	}
}

func TestCreateTrackedLink_WebsiteKit(t *testing.T) {
	t.Parallel()

	svc, _ := newTestLinkService(newFakeStore(), newFakeCache())

	out, err := svc.CreateTrackedLink(authed(), CreateTrackedLinkInput{
		ProductID:      "prod-1",
		DestinationURL: "https://shop.example.com",
	})
	if err != nil {
		t.Fatalf("CreateTrackedLink() error = %v", err)
	}
	if out.Link.HasCampaign() {
		t.Error("website-kit link should carry no campaign")
	}
	if out.Link.UTM.Source != "website" || out.Link.UTM.Medium != "website" {
		t.Errorf("UTM = %+v", out.Link.UTM)
	}
}

func TestCreateTrackedLink_Errors(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.campaigns["c-other"] = &model.Campaign{ID: "c-other", ProductID: "prod-2"}
	store.pieces["p-other"] = &model.ContentPiece{ID: "p-other", ProductID: "prod-2"}
	svc, _ := newTestLinkService(store, newFakeCache())

	tests := []struct {
		name    string
		input   CreateTrackedLinkInput
		wantErr error
	}{
		{"missing product", CreateTrackedLinkInput{DestinationURL: "https://e.com"}, ErrMissingProduct},
		{"unknown product", CreateTrackedLinkInput{ProductID: "prod-404", DestinationURL: "https://e.com"}, ErrProductNotFound},
		{"another owner's product", CreateTrackedLinkInput{ProductID: "prod-2", DestinationURL: "https://e.com"}, ErrProductNotFound},
		{"bad destination", CreateTrackedLinkInput{ProductID: "prod-1", DestinationURL: "javascript:alert(1)"}, ErrInvalidDestination},
		{"unknown campaign", CreateTrackedLinkInput{ProductID: "prod-1", CampaignID: "nope", DestinationURL: "https://e.com"}, ErrCampaignNotFound},
		{"foreign campaign", CreateTrackedLinkInput{ProductID: "prod-1", CampaignID: "c-other", DestinationURL: "https://e.com"}, ErrCampaignProductMismatch},
		{"unknown piece", CreateTrackedLinkInput{ProductID: "prod-1", ContentPieceID: "nope", DestinationURL: "https://e.com"}, ErrContentPieceNotFound},
		{"foreign piece", CreateTrackedLinkInput{ProductID: "prod-1", ContentPieceID: "p-other", DestinationURL: "https://e.com"}, ErrContentProductMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.CreateTrackedLink(authed(), tt.input); !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
	if len(store.links) != 0 {
		t.Errorf("rejected inputs persisted %d links", len(store.links))
	}
}

func TestCreateTrackedLink_SlugCollisionRetry(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.takenSlugs = maxSlugRetries - 1
	svc, _ := newTestLinkService(store, newFakeCache())

	if _, err := svc.CreateTrackedLink(authed(), CreateTrackedLinkInput{
		ProductID:      "prod-1",
		DestinationURL: "https://e.com",
	}); err != nil {
		t.Fatalf("expected success after %d collisions, got %v", maxSlugRetries-1, err)
	}

	store.takenSlugs = maxSlugRetries
	if _, err := svc.CreateTrackedLink(authed(), CreateTrackedLinkInput{
		ProductID:      "prod-1",
		DestinationURL: "https://e.com",
	}); !errors.Is(err, ErrSlugExhausted) {
		t.Fatalf("error = %v, want ErrSlugExhausted", err)
	}
}

func TestGetLink(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.links["l1"] = &model.Link{ID: "l1", Slug: "ab12cd34", ProductID: "prod-1"}
	store.links["l2"] = &model.Link{ID: "l2", Slug: "ef56gh78", ProductID: "prod-2"}
	svc, _ := newTestLinkService(store, newFakeCache())

	if got, err := svc.GetLink(authed(), "l1"); err != nil || got.Slug != "ab12cd34" {
		t.Fatalf("GetLink(l1) = %v, %v", got, err)
	}
	if _, err := svc.GetLink(authed(), "missing"); !errors.Is(err, ErrLinkNotFound) {
		t.Errorf("GetLink(missing) error = %v, want ErrLinkNotFound", err)
	}
	if _, err := svc.GetLink(authed(), "l2"); !errors.Is(err, ErrLinkNotFound) {
		t.Errorf("GetLink(another owner's link) error = %v, want ErrLinkNotFound", err)
	}
	if _, err := svc.GetLink(context.Background(), "l1"); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("GetLink(anonymous) error = %v, want ErrUnauthenticated", err)
	}
}

func TestListLinks(t *testing.T) {
	t.Parallel()

	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	c1, c2 := "c1", "c2"
	store := newFakeStore()
	store.links["l1"] = &model.Link{ID: "l1", ProductID: "prod-1", CampaignID: &c1, CreatedAt: base}
	store.links["l2"] = &model.Link{ID: "l2", ProductID: "prod-1", CampaignID: &c2, CreatedAt: base.Add(time.Hour)}
	store.links["l3"] = &model.Link{ID: "l3", ProductID: "prod-1", CampaignID: &c1, CreatedAt: base.Add(2 * time.Hour)}
	store.links["l4"] = &model.Link{ID: "l4", ProductID: "prod-1", CreatedAt: base.Add(3 * time.Hour)}
	store.links["x1"] = &model.Link{ID: "x1", ProductID: "prod-2", CampaignID: &c1, CreatedAt: base}
	svc, _ := newTestLinkService(store, newFakeCache())

	ids := func(links []model.Link) string {
		out := make([]string, 0, len(links))
		for _, l := range links {
			out = append(out, l.ID)
		}
		return strings.Join(out, ",")
	}

	all, err := svc.ListLinks(authed(), "prod-1", "")
	if err != nil {
		t.Fatalf("ListLinks() error = %v", err)
	}
	if got := ids(all); got != "l4,l3,l2,l1" {
		t.Errorf("ListLinks(all) = %s, want newest first", got)
	}

	byCampaign, err := svc.ListLinks(authed(), "prod-1", "c1")
	if err != nil {
		t.Fatalf("ListLinks(c1) error = %v", err)
	}
	if got := ids(byCampaign); got != "l3,l1" {
		t.Errorf("ListLinks(c1) = %s, want l3,l1", got)
	}

	none, err := svc.ListLinks(authed(), "prod-1", "c-unknown")
	if err != nil || len(none) != 0 {
		t.Errorf("ListLinks(unknown campaign) = %v, %v; want empty", none, err)
	}
}

func TestListLinks_Authorization(t *testing.T) {
	t.Parallel()

	svc, _ := newTestLinkService(newFakeStore(), newFakeCache())

	tests := []struct {
		name      string
		ctx       context.Context
		productID string
		wantErr   error
	}{
		{"anonymous", context.Background(), "prod-1", ErrUnauthenticated},
		{"missing product", authed(), "", ErrMissingProduct},
		{"unknown product", authed(), "prod-404", ErrProductNotFound},
		{"another owner's product", authed(), "prod-2", ErrProductNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.ListLinks(tt.ctx, tt.productID, ""); !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestResolve_CacheHit(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	c := newFakeCache()
	c.links["ab12cd34"] = &model.Link{ID: "l1", Slug: "ab12cd34", DestinationURL: "https://e.com"}
	svc, rec := newTestLinkService(store, c)

	link, err := svc.Resolve(context.Background(), "ab12cd34")
	if err != nil || link.ID != "l1" {
		t.Fatalf("Resolve() = %v, %v", link, err)
	}
	if store.slugLookups != 0 {
		t.Error("cache hit should not query the database")
	}
	if rec.Snapshot().RedirectCacheHits != 1 {
		t.Error("cache hit not counted")
	}
}

func TestResolve_MissBackfills(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.links["l1"] = &model.Link{ID: "l1", Slug: "ab12cd34", DestinationURL: "https://e.com"}
	c := newFakeCache()
	svc, rec := newTestLinkService(store, c)

	if _, err := svc.Resolve(context.Background(), "ab12cd34"); err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if _, ok := c.links["ab12cd34"]; !ok {
		t.Error("database hit not written back to cache")
	}
	if rec.Snapshot().RedirectCacheMisses != 1 {
		t.Error("cache miss not counted")
	}

	// Second call is served from the backfilled cache.
	if _, err := svc.Resolve(context.Background(), "ab12cd34"); err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if store.slugLookups != 1 {
		t.Errorf("slugLookups = %d, want 1", store.slugLookups)
	}
}

func TestResolve_NotFoundSetsNegativeCache(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	c := newFakeCache()
	svc, _ := newTestLinkService(store, c)

	if _, err := svc.Resolve(context.Background(), "zz99yy88"); !errors.Is(err, ErrLinkNotFound) {
		t.Fatalf("error = %v, want ErrLinkNotFound", err)
	}
	if !c.negative["zz99yy88"] {
		t.Fatal("negative cache not set")
	}

	if _, err := svc.Resolve(context.Background(), "zz99yy88"); !errors.Is(err, ErrLinkNotFound) {
		t.Fatalf("error = %v, want ErrLinkNotFound", err)
	}
	if store.slugLookups != 1 {
		t.Errorf("negative cache should short-circuit, slugLookups = %d", store.slugLookups)
	}
}

func TestResolve_CacheErrorFallsThrough(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.links["l1"] = &model.Link{ID: "l1", Slug: "ab12cd34"}
	c := newFakeCache()
	c.readErr = errBoom
	svc, _ := newTestLinkService(store, c)

	link, err := svc.Resolve(context.Background(), "ab12cd34")
	if err != nil || link.ID != "l1" {
		t.Fatalf("Resolve() = %v, %v", link, err)
	}
}

func TestResolve_DatabaseError(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.err = errBoom
	c := newFakeCache()
	svc, _ := newTestLinkService(store, c)

	if _, err := svc.Resolve(context.Background(), "ab12cd34"); !errors.Is(err, errBoom) {
		t.Fatalf("error = %v, want errBoom", err)
	}
	if c.negative["ab12cd34"] {
		t.Error("database errors must not be negatively cached")
	}
}
