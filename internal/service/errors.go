// Package service provides business logic for the application.
package service

import "errors"

// Service errors.
var (
	ErrUnauthenticated         = errors.New("unauthenticated")
	ErrInvalidDestination      = errors.New("invalid destination URL")
	ErrURLTooLong              = errors.New("destination URL too long")
	ErrMissingProduct          = errors.New("product_id is required")
	ErrProductNotFound         = errors.New("product not found")
	ErrLinkNotFound            = errors.New("link not found")
	ErrCampaignNotFound        = errors.New("campaign not found")
	ErrContentPieceNotFound    = errors.New("content piece not found")
	ErrCampaignProductMismatch = errors.New("campaign does not belong to product")
	ErrContentProductMismatch  = errors.New("content piece does not belong to product")
	ErrSlugExhausted           = errors.New("failed to generate unique slug after retries")
)
