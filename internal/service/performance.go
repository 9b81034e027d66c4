package service

import (
	"context"

	"github.com/pulseboard/pulseboard/internal/model"
	"github.com/pulseboard/pulseboard/internal/scoring"
)

// ScoreBuilder computes scoreboards for a product.
type ScoreBuilder interface {
	Build(ctx context.Context, productID string, period scoring.Period) (*model.PerformanceData, error)
}

// PerformanceService is the authenticated entry point to the scoring engine.
type PerformanceService struct {
	builder ScoreBuilder
	owners  ProductOwners
}

// NewPerformanceService creates a new PerformanceService.
func NewPerformanceService(builder ScoreBuilder, owners ProductOwners) *PerformanceService {
	return &PerformanceService{builder: builder, owners: owners}
}

// LoadScores returns the scoreboards for productID over period. The caller
// must be authenticated and own the product.
func (s *PerformanceService) LoadScores(ctx context.Context, productID string, period scoring.Period) (*model.PerformanceData, error) {
	if err := authorizeProduct(ctx, s.owners, productID); err != nil {
		return nil, err
	}
	return s.builder.Build(ctx, productID, period)
}
