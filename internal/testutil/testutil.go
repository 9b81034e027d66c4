// Package testutil holds helpers shared by integration tests.
package testutil

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"

	"github.com/pulseboard/pulseboard/internal/model"
)

// RequireEnv returns an environment variable or skips the test if missing.
func RequireEnv(t testing.TB, key string) string {
	t.Helper()
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("%s not set", key)
	}
	return value
}

const advisoryLockID int64 = 737373

// AcquireDBLock grabs a global advisory lock to serialize DB tests.
func AcquireDBLock(ctx context.Context, pool *pgxpool.Pool) (func() error, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}

	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", advisoryLockID); err != nil {
		conn.Release()
		return nil, fmt.Errorf("acquire advisory lock: %w", err)
	}

	unlock := func() error {
		defer conn.Release()
		if _, err := conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", advisoryLockID); err != nil {
			return fmt.Errorf("release advisory lock: %w", err)
		}
		return nil
	}

	return unlock, nil
}

// ResetSchema drops every application table and applies ddl.
func ResetSchema(ctx context.Context, pool *pgxpool.Pool, ddl string) error {
	drop := `DROP TABLE IF EXISTS clicks, links, content_pieces, campaigns, avatars, products CASCADE`
	if _, err := pool.Exec(ctx, drop); err != nil {
		return fmt.Errorf("drop tables: %w", err)
	}
	if _, err := pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// FlushRedis clears the current Redis database.
func FlushRedis(ctx context.Context, client *redis.Client) error {
	return client.FlushDB(ctx).Err()
}

// ============================================================================
// Test Data Factories
// ============================================================================

// Fixtures inserts test rows directly, bypassing service validation.
type Fixtures struct {
	Pool      *pgxpool.Pool
	ProductID string
}

// NewFixtures scopes fixtures to a fresh product ID.
func NewFixtures(pool *pgxpool.Pool) *Fixtures {
	return &Fixtures{Pool: pool, ProductID: UniqueID("prod")}
}

// Product inserts the fixture product owned by ownerID.
func (f *Fixtures) Product(t testing.TB, ownerID string) {
	t.Helper()
	_, err := f.Pool.Exec(context.Background(),
		`INSERT INTO products (id, owner_id, name) VALUES ($1, $2, $3)`,
		f.ProductID, ownerID, "Test product")
	if err != nil {
		t.Fatalf("insert product: %v", err)
	}
}

// Avatar inserts an avatar and returns its ID.
func (f *Fixtures) Avatar(t testing.TB, name string, active bool) string {
	t.Helper()
	id := UniqueID("av")
	_, err := f.Pool.Exec(context.Background(),
		`INSERT INTO avatars (id, product_id, name, is_active) VALUES ($1, $2, $3, $4)`,
		id, f.ProductID, name, active)
	if err != nil {
		t.Fatalf("insert avatar: %v", err)
	}
	return id
}

// Campaign inserts a campaign and returns it.
func (f *Fixtures) Campaign(t testing.TB, avatarID, channel, angle string, category model.CampaignCategory) *model.Campaign {
	t.Helper()
	c := &model.Campaign{
		ID:        UniqueID("camp"),
		ProductID: f.ProductID,
		AvatarID:  avatarID,
		Channel:   channel,
		Angle:     angle,
		Category:  category,
		Status:    "active",
		CreatedAt: time.Now().UTC(),
	}
	_, err := f.Pool.Exec(context.Background(),
		`INSERT INTO campaigns (id, product_id, avatar_id, channel, angle, category, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		c.ID, c.ProductID, c.AvatarID, c.Channel, c.Angle, c.Category, c.Status, c.CreatedAt)
	if err != nil {
		t.Fatalf("insert campaign: %v", err)
	}
	return c
}

// ContentPiece inserts a measured content piece and returns its ID.
func (f *Fixtures) ContentPiece(t testing.TB, campaignID *string, title string, views int64, rating *int, loggedAt *time.Time) string {
	t.Helper()
	id := UniqueID("cp")
	_, err := f.Pool.Exec(context.Background(),
		`INSERT INTO content_pieces (id, product_id, campaign_id, title, engagement_views, rating, engagement_logged_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		id, f.ProductID, campaignID, title, views, rating, loggedAt)
	if err != nil {
		t.Fatalf("insert content piece: %v", err)
	}
	return id
}

// NewTestLink creates a test link with sensible defaults.
func NewTestLink(t testing.TB, productID string, campaignID *string) *model.Link {
	t.Helper()
	return &model.Link{
		ID:             ulid.Make().String(),
		Slug:           UniqueSlug(),
		ProductID:      productID,
		CampaignID:     campaignID,
		DestinationURL: "https://example.com/landing",
		UTM:            model.UTM{Source: "instagram", Medium: "social"},
		CreatedAt:      time.Now().UTC().Truncate(time.Second),
	}
}

// UniqueSlug returns a valid 8-char slug unlikely to collide across tests.
func UniqueSlug() string {
	s := fmt.Sprintf("%08x", time.Now().UnixNano()&0xffffffff)
	return s[len(s)-8:]
}

// UniqueID generates a unique ID for tests.
func UniqueID(prefix string) string {
	return fmt.Sprintf("%s-%s", prefix, ulid.Make().String())
}
