// Package scoring turns click facts and engagement snapshots into normalized
// campaign, avatar and channel scoreboards.
package scoring

import "github.com/pulseboard/pulseboard/internal/model"

// Engagement weights per interaction type.
const (
	WeightViews    int64 = 1
	WeightLikes    int64 = 3
	WeightComments int64 = 5
	WeightShares   int64 = 4
)

// EngagementRaw returns the weighted interaction volume of one measurement.
func EngagementRaw(views, likes, comments, shares int64) int64 {
	return views*WeightViews +
		likes*WeightLikes +
		comments*WeightComments +
		shares*WeightShares
}

// PieceEngagement computes EngagementRaw for a content piece.
// Unmeasured counters count as zero.
func PieceEngagement(p *model.ContentPiece) int64 {
	return EngagementRaw(valueOr0(p.Views), valueOr0(p.Likes), valueOr0(p.Comments), valueOr0(p.Shares))
}

func valueOr0(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}
