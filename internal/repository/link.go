package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/pulseboard/pulseboard/internal/model"
)

// Common errors for link repository operations.
var (
	ErrLinkNotFound = errors.New("link not found")
	ErrSlugExists   = errors.New("slug already exists")
)

const linkColumns = `id, slug, product_id, campaign_id, content_piece_id, destination_url,
	utm_source, utm_medium, utm_campaign, utm_content, utm_term, click_count, created_at`

// CreateLink inserts a new link into the database.
func (r *Repository) CreateLink(ctx context.Context, link *model.Link) error {
	query := `
		INSERT INTO links (id, slug, product_id, campaign_id, content_piece_id, destination_url,
			utm_source, utm_medium, utm_campaign, utm_content, utm_term, click_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := r.pool.Exec(ctx, query,
		link.ID,
		link.Slug,
		link.ProductID,
		link.CampaignID,
		link.ContentPieceID,
		link.DestinationURL,
		nullableString(link.UTM.Source),
		nullableString(link.UTM.Medium),
		nullableString(link.UTM.Campaign),
		nullableString(link.UTM.Content),
		nullableString(link.UTM.Term),
		link.ClickCount,
		link.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrSlugExists
		}
		return fmt.Errorf("failed to create link: %w", err)
	}

	return nil
}

// GetLinkByID retrieves a link by its ID.
func (r *Repository) GetLinkByID(ctx context.Context, id string) (*model.Link, error) {
	query := `SELECT ` + linkColumns + ` FROM links WHERE id = $1`
	return r.getLink(ctx, query, id)
}

// GetLinkBySlug retrieves a link by its slug.
// This is the hot path for redirects.
func (r *Repository) GetLinkBySlug(ctx context.Context, slug string) (*model.Link, error) {
	query := `SELECT ` + linkColumns + ` FROM links WHERE slug = $1`
	return r.getLink(ctx, query, slug)
}

func (r *Repository) getLink(ctx context.Context, query string, arg string) (*model.Link, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to get link: %w", err)
	}

	link, err := pgx.CollectExactlyOneRow(rows, scanLink)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLinkNotFound
		}
		return nil, fmt.Errorf("failed to get link: %w", err)
	}
	return &link, nil
}

// ListLinks returns every link of a product, website-kit links included.
func (r *Repository) ListLinks(ctx context.Context, productID string) ([]model.Link, error) {
	query := `SELECT ` + linkColumns + ` FROM links WHERE product_id = $1`

	rows, err := r.pool.Query(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to list links: %w", err)
	}

	links, err := pgx.CollectRows(rows, scanLink)
	if err != nil {
		return nil, fmt.Errorf("failed to scan links: %w", err)
	}
	return links, nil
}

// SlugExists checks whether a slug is already taken.
func (r *Repository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM links WHERE slug = $1)`, slug).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check slug: %w", err)
	}
	return exists, nil
}

func scanLink(row pgx.CollectableRow) (model.Link, error) {
	var link model.Link
	var source, medium, campaign, content, term *string
	err := row.Scan(
		&link.ID,
		&link.Slug,
		&link.ProductID,
		&link.CampaignID,
		&link.ContentPieceID,
		&link.DestinationURL,
		&source,
		&medium,
		&campaign,
		&content,
		&term,
		&link.ClickCount,
		&link.CreatedAt,
	)
	if err != nil {
		return link, err
	}
	link.UTM = model.UTM{
		Source:   deref(source),
		Medium:   deref(medium),
		Campaign: deref(campaign),
		Content:  deref(content),
		Term:     deref(term),
	}
	return link, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
