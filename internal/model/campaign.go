package model

import "time"

// CampaignCategory is the coarse placement of a campaign.
type CampaignCategory string

const (
	CategorySocial  CampaignCategory = "social"
	CategoryAd      CampaignCategory = "ad"
	CategoryWebsite CampaignCategory = "website"
)

// IsValid checks if the category is one of the known values.
func (c CampaignCategory) IsValid() bool {
	return c == CategorySocial || c == CategoryAd || c == CategoryWebsite
}

// Campaign belongs to one product and one avatar. Channel, angle and category
// are mutable metadata and are never re-derived from events.
type Campaign struct {
	ID        string           `json:"id"`
	ProductID string           `json:"product_id"`
	AvatarID  string           `json:"avatar_id"`
	Channel   string           `json:"channel"`
	Angle     string           `json:"angle"`
	Category  CampaignCategory `json:"category"`
	Status    string           `json:"status"`
	CreatedAt time.Time        `json:"created_at"`
}

// Avatar is a target customer segment of a product.
// Retired avatars (IsActive == false) get no scoreboard row.
type Avatar struct {
	ID        string    `json:"id"`
	ProductID string    `json:"product_id"`
	Name      string    `json:"name"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// Rating values for content pieces.
const (
	RatingDown    = -1
	RatingNeutral = 0
	RatingUp      = 1
)

// ContentPiece carries point-in-time engagement counters. The counters are a
// snapshot overwritten on re-measurement, not a time series. Nil counters mean
// "not measured".
type ContentPiece struct {
	ID                 string     `json:"id"`
	ProductID          string     `json:"product_id"`
	CampaignID         *string    `json:"campaign_id,omitempty"`
	Title              string     `json:"title"`
	Views              *int64     `json:"engagement_views,omitempty"`
	Likes              *int64     `json:"engagement_likes,omitempty"`
	Comments           *int64     `json:"engagement_comments,omitempty"`
	Shares             *int64     `json:"engagement_shares,omitempty"`
	EngagementLoggedAt *time.Time `json:"engagement_logged_at,omitempty"`
	Rating             *int       `json:"rating,omitempty"`
}

// HasCampaign reports whether the piece is attributed to a campaign.
func (p *ContentPiece) HasCampaign() bool {
	return p.CampaignID != nil && *p.CampaignID != ""
}
