package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/pulseboard/pulseboard/internal/model"
)

// ListActiveAvatars returns the product's non-retired avatars.
func (r *Repository) ListActiveAvatars(ctx context.Context, productID string) ([]model.Avatar, error) {
	query := `
		SELECT id, product_id, name, is_active, created_at
		FROM avatars
		WHERE product_id = $1 AND is_active
		ORDER BY created_at, id
	`

	rows, err := r.pool.Query(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to list avatars: %w", err)
	}

	avatars, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Avatar, error) {
		var a model.Avatar
		err := row.Scan(&a.ID, &a.ProductID, &a.Name, &a.IsActive, &a.CreatedAt)
		return a, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan avatars: %w", err)
	}
	return avatars, nil
}
