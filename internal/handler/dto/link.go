// Package dto provides Data Transfer Objects for API requests and responses.
package dto

import (
	"time"

	"github.com/pulseboard/pulseboard/internal/model"
)

// CreateLinkRequest represents the request body for creating a tracked link.
type CreateLinkRequest struct {
	ProductID      string `json:"product_id"`
	CampaignID     string `json:"campaign_id,omitempty"`
	ContentPieceID string `json:"content_piece_id,omitempty"`
	DestinationURL string `json:"destination_url"`
}

// LinkResponse represents a link in API responses.
type LinkResponse struct {
	ID             string    `json:"id"`
	Slug           string    `json:"slug"`
	TrackedURL     string    `json:"tracked_url"`
	ProductID      string    `json:"product_id"`
	CampaignID     *string   `json:"campaign_id,omitempty"`
	ContentPieceID *string   `json:"content_piece_id,omitempty"`
	DestinationURL string    `json:"destination_url"`
	UTM            model.UTM `json:"utm"`
	ClickCount     int64     `json:"click_count"`
	CreatedAt      time.Time `json:"created_at"`
}

// LinkListResponse is the body of GET /products/{productID}/links.
type LinkListResponse struct {
	Links []*LinkResponse `json:"links"`
	Count int             `json:"count"`
}

// ErrorResponse represents an API error.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// ToLinkResponse converts a Link model to LinkResponse DTO.
func ToLinkResponse(link *model.Link, trackedURL string) *LinkResponse {
	return &LinkResponse{
		ID:             link.ID,
		Slug:           link.Slug,
		TrackedURL:     trackedURL,
		ProductID:      link.ProductID,
		CampaignID:     link.CampaignID,
		ContentPieceID: link.ContentPieceID,
		DestinationURL: link.DestinationURL,
		UTM:            link.UTM,
		ClickCount:     link.ClickCount,
		CreatedAt:      link.CreatedAt,
	}
}

// ToLinkListResponse converts links, resolving each tracked URL with trackedURL.
func ToLinkListResponse(links []model.Link, trackedURL func(slug string) string) *LinkListResponse {
	resp := &LinkListResponse{Links: make([]*LinkResponse, 0, len(links)), Count: len(links)}
	for i := range links {
		resp.Links = append(resp.Links, ToLinkResponse(&links[i], trackedURL(links[i].Slug)))
	}
	return resp
}
