package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// ErrProductNotFound is returned when a product does not exist.
var ErrProductNotFound = errors.New("product not found")

// ProductOwner returns the user ID that owns productID.
func (r *Repository) ProductOwner(ctx context.Context, productID string) (string, error) {
	var ownerID string
	err := r.pool.QueryRow(ctx, `SELECT owner_id FROM products WHERE id = $1`, productID).Scan(&ownerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrProductNotFound
		}
		return "", fmt.Errorf("failed to get product owner: %w", err)
	}
	return ownerID, nil
}
