// Package model defines domain entities for the application.
package model

import (
	"strconv"
	"time"
)

// SlugLength is the fixed length of a tracked link slug.
const SlugLength = 8

// UTM holds the attribution parameters stamped on a link at creation time.
// They are a snapshot of the owning campaign's metadata and are never
// re-derived when the campaign changes.
type UTM struct {
	Source   string `json:"utm_source,omitempty"`
	Medium   string `json:"utm_medium,omitempty"`
	Campaign string `json:"utm_campaign,omitempty"`
	Content  string `json:"utm_content,omitempty"`
	Term     string `json:"utm_term,omitempty"`
}

// Link represents a tracked short link.
//
// ClickCount is a counter-cache maintained by the click ingest worker. It may
// lag the click log by the latency of the fire-and-forget publish plus one
// worker batch, so only all-time scoring reads it.
type Link struct {
	ID             string    `json:"id"`
	Slug           string    `json:"slug"`
	ProductID      string    `json:"product_id"`
	CampaignID     *string   `json:"campaign_id,omitempty"`
	ContentPieceID *string   `json:"content_piece_id,omitempty"`
	DestinationURL string    `json:"destination_url"`
	UTM            UTM       `json:"utm"`
	ClickCount     int64     `json:"click_count"`
	CreatedAt      time.Time `json:"created_at"`
}

// HasCampaign reports whether the link is attributed to a campaign.
// Website-kit links carry no campaign and never feed campaign scoreboards.
func (l *Link) HasCampaign() bool {
	return l.CampaignID != nil && *l.CampaignID != ""
}

// CachedLink represents link data stored in Redis cache.
// Uses string types for Redis hash compatibility.
type CachedLink struct {
	ID             string `redis:"id"`
	ProductID      string `redis:"product_id"`
	CampaignID     string `redis:"campaign_id"`
	DestinationURL string `redis:"destination_url"`
	UTMSource      string `redis:"utm_source"`
	UTMMedium      string `redis:"utm_medium"`
	UTMCampaign    string `redis:"utm_campaign"`
	UTMContent     string `redis:"utm_content"`
	UTMTerm        string `redis:"utm_term"`
	CreatedAt      string `redis:"created_at"` // Unix timestamp
}

// ToLink converts CachedLink to Link domain model.
func (c *CachedLink) ToLink(slug string) *Link {
	link := &Link{
		ID:             c.ID,
		Slug:           slug,
		ProductID:      c.ProductID,
		DestinationURL: c.DestinationURL,
		UTM: UTM{
			Source:   c.UTMSource,
			Medium:   c.UTMMedium,
			Campaign: c.UTMCampaign,
			Content:  c.UTMContent,
			Term:     c.UTMTerm,
		},
	}

	if c.CampaignID != "" {
		campaignID := c.CampaignID
		link.CampaignID = &campaignID
	}

	if c.CreatedAt != "" {
		if ts, err := strconv.ParseInt(c.CreatedAt, 10, 64); err == nil {
			link.CreatedAt = time.Unix(ts, 0)
		}
	}

	return link
}

// ToCachedLink converts Link domain model to CachedLink.
func (l *Link) ToCachedLink() *CachedLink {
	cached := &CachedLink{
		ID:             l.ID,
		ProductID:      l.ProductID,
		DestinationURL: l.DestinationURL,
		UTMSource:      l.UTM.Source,
		UTMMedium:      l.UTM.Medium,
		UTMCampaign:    l.UTM.Campaign,
		UTMContent:     l.UTM.Content,
		UTMTerm:        l.UTM.Term,
		CreatedAt:      strconv.FormatInt(l.CreatedAt.Unix(), 10),
	}

	if l.HasCampaign() {
		cached.CampaignID = *l.CampaignID
	}

	return cached
}
