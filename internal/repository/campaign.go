package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/pulseboard/pulseboard/internal/model"
)

// ErrCampaignNotFound is returned when a campaign does not exist.
var ErrCampaignNotFound = errors.New("campaign not found")

const campaignColumns = `id, product_id, avatar_id, channel, angle, category, status, created_at`

// ListCampaigns returns all campaigns of a product in creation order.
func (r *Repository) ListCampaigns(ctx context.Context, productID string) ([]model.Campaign, error) {
	query := `SELECT ` + campaignColumns + `
		FROM campaigns
		WHERE product_id = $1
		ORDER BY created_at, id
	`

	rows, err := r.pool.Query(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to list campaigns: %w", err)
	}

	campaigns, err := pgx.CollectRows(rows, scanCampaign)
	if err != nil {
		return nil, fmt.Errorf("failed to scan campaigns: %w", err)
	}
	return campaigns, nil
}

// GetCampaignByID retrieves a campaign by its ID.
func (r *Repository) GetCampaignByID(ctx context.Context, id string) (*model.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE id = $1`

	rows, err := r.pool.Query(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get campaign: %w", err)
	}

	campaign, err := pgx.CollectExactlyOneRow(rows, scanCampaign)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCampaignNotFound
		}
		return nil, fmt.Errorf("failed to get campaign: %w", err)
	}
	return &campaign, nil
}

func scanCampaign(row pgx.CollectableRow) (model.Campaign, error) {
	var c model.Campaign
	err := row.Scan(
		&c.ID,
		&c.ProductID,
		&c.AvatarID,
		&c.Channel,
		&c.Angle,
		&c.Category,
		&c.Status,
		&c.CreatedAt,
	)
	return c, err
}
