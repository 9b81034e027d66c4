package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pulseboard/pulseboard/internal/model"
)

// Cache key layout and TTLs.
const (
	linkKeyPrefix     = "link:"
	negCacheKeySuffix = ":neg"

	// DefaultLinkTTL is the TTL for cached link data.
	DefaultLinkTTL = 24 * time.Hour

	// NegativeCacheTTL is the TTL for negative cache entries.
	NegativeCacheTTL = 5 * time.Minute
)

// ErrCacheMiss is returned when a slug is not cached.
var ErrCacheMiss = errors.New("cache miss")

func linkKey(slug string) string {
	return linkKeyPrefix + slug
}

func negativeKey(slug string) string {
	return linkKeyPrefix + slug + negCacheKeySuffix
}

// GetLink retrieves a link from cache by slug.
// Returns ErrCacheMiss if not found.
func (c *Cache) GetLink(ctx context.Context, slug string) (*model.Link, error) {
	cmd := c.client.HGetAll(ctx, linkKey(slug))
	result, err := cmd.Result()
	if err != nil {
		return nil, fmt.Errorf("redis hgetall failed: %w", err)
	}
	if len(result) == 0 {
		return nil, ErrCacheMiss
	}

	var cached model.CachedLink
	if err := cmd.Scan(&cached); err != nil {
		return nil, fmt.Errorf("decode cached link: %w", err)
	}
	if cached.ID == "" || cached.DestinationURL == "" {
		// Partial hash left by an interrupted write.
		return nil, ErrCacheMiss
	}

	return cached.ToLink(slug), nil
}

// SetLink stores a link in cache and clears any negative entry for its slug.
// UTM fields are stored as they were stamped at creation.
func (c *Cache) SetLink(ctx context.Context, link *model.Link) error {
	key := linkKey(link.Slug)

	pipe := c.client.TxPipeline()
	pipe.Del(ctx, key)
	pipe.HSet(ctx, key, link.ToCachedLink())
	pipe.Expire(ctx, key, DefaultLinkTTL)
	pipe.Del(ctx, negativeKey(link.Slug))

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to cache link: %w", err)
	}
	return nil
}

// DeleteLink removes a link from cache.
func (c *Cache) DeleteLink(ctx context.Context, slug string) error {
	if err := c.client.Del(ctx, linkKey(slug), negativeKey(slug)).Err(); err != nil {
		return fmt.Errorf("failed to delete link from cache: %w", err)
	}
	return nil
}

// IsNegativelyCached checks if a slug is in negative cache.
func (c *Cache) IsNegativelyCached(ctx context.Context, slug string) (bool, error) {
	exists, err := c.client.Exists(ctx, negativeKey(slug)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check negative cache: %w", err)
	}
	return exists > 0, nil
}

// SetNegativeCache marks a slug as not found.
func (c *Cache) SetNegativeCache(ctx context.Context, slug string) error {
	if err := c.client.SetEx(ctx, negativeKey(slug), "", NegativeCacheTTL).Err(); err != nil {
		return fmt.Errorf("failed to set negative cache: %w", err)
	}
	return nil
}
