package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/pulseboard/pulseboard/internal/model"
)

// ErrContentPieceNotFound is returned when a content piece does not exist.
var ErrContentPieceNotFound = errors.New("content piece not found")

const contentColumns = `id, product_id, campaign_id, title,
	engagement_views, engagement_likes, engagement_comments, engagement_shares,
	engagement_logged_at, rating`

// ListContentPieces returns all content pieces of a product with their
// latest engagement snapshot.
func (r *Repository) ListContentPieces(ctx context.Context, productID string) ([]model.ContentPiece, error) {
	query := `SELECT ` + contentColumns + ` FROM content_pieces WHERE product_id = $1`

	rows, err := r.pool.Query(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to list content pieces: %w", err)
	}

	pieces, err := pgx.CollectRows(rows, scanContentPiece)
	if err != nil {
		return nil, fmt.Errorf("failed to scan content pieces: %w", err)
	}
	return pieces, nil
}

// GetContentPieceByID retrieves a content piece by its ID.
func (r *Repository) GetContentPieceByID(ctx context.Context, id string) (*model.ContentPiece, error) {
	query := `SELECT ` + contentColumns + ` FROM content_pieces WHERE id = $1`

	rows, err := r.pool.Query(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get content piece: %w", err)
	}

	piece, err := pgx.CollectExactlyOneRow(rows, scanContentPiece)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrContentPieceNotFound
		}
		return nil, fmt.Errorf("failed to get content piece: %w", err)
	}
	return &piece, nil
}

func scanContentPiece(row pgx.CollectableRow) (model.ContentPiece, error) {
	var p model.ContentPiece
	var rating *int16
	err := row.Scan(
		&p.ID,
		&p.ProductID,
		&p.CampaignID,
		&p.Title,
		&p.Views,
		&p.Likes,
		&p.Comments,
		&p.Shares,
		&p.EngagementLoggedAt,
		&rating,
	)
	if err != nil {
		return p, err
	}
	if rating != nil {
		v := int(*rating)
		p.Rating = &v
	}
	return p, nil
}
