package scoring

import "github.com/pulseboard/pulseboard/internal/model"

// Rating quantization dead-band.
const ratingThreshold = 0.3

// CampaignClicks is the click roll-up of one campaign.
type CampaignClicks struct {
	TotalClicks int64
	LinkCount   int
}

// CampaignEngagement is the engagement roll-up of one campaign.
type CampaignEngagement struct {
	EngagementRaw int64
	RatingSum     int
	RatingCount   int
}

// AverageRating returns the mean rating. ok is false when no piece is rated;
// an unrated campaign has no average, not a zero one.
func (e CampaignEngagement) AverageRating() (avg float64, ok bool) {
	if e.RatingCount == 0 {
		return 0, false
	}
	return float64(e.RatingSum) / float64(e.RatingCount), true
}

// QuantizedRating returns the ternary rating used by CompositeScore, or nil
// when the campaign has no rated content.
func (e CampaignEngagement) QuantizedRating() *int {
	avg, ok := e.AverageRating()
	if !ok {
		return nil
	}
	q := QuantizeRating(avg)
	return &q
}

// QuantizeRating maps an average rating onto {-1, 0, +1}.
func QuantizeRating(avg float64) int {
	switch {
	case avg > ratingThreshold:
		return model.RatingUp
	case avg < -ratingThreshold:
		return model.RatingDown
	default:
		return model.RatingNeutral
	}
}

// AggregateClicks rolls link clicks up to their campaigns.
//
// For an all-time window the links' cached click counts are used and events
// is ignored. For a trailing window the cached counts are discarded and only
// events inside the window are counted. Links without a campaign are skipped.
func AggregateClicks(links []model.Link, events []model.ClickFact, w Window) map[string]CampaignClicks {
	var perLink map[string]int64
	if !w.AllTime() {
		perLink = make(map[string]int64, len(links))
		for _, ev := range events {
			if w.Contains(ev.ClickedAt) {
				perLink[ev.LinkID]++
			}
		}
	}

	out := make(map[string]CampaignClicks)
	for i := range links {
		link := &links[i]
		if !link.HasCampaign() {
			continue
		}

		clicks := link.ClickCount
		if perLink != nil {
			clicks = perLink[link.ID]
		}

		agg := out[*link.CampaignID]
		agg.TotalClicks += clicks
		agg.LinkCount++
		out[*link.CampaignID] = agg
	}
	return out
}

// AggregateEngagement rolls content engagement and ratings up to campaigns.
//
// For a trailing window a piece counts only when its engagement was logged
// inside the window; pieces never measured cannot be attributed to a window
// and are skipped. Pieces without a campaign are skipped.
func AggregateEngagement(pieces []model.ContentPiece, w Window) map[string]CampaignEngagement {
	out := make(map[string]CampaignEngagement)
	for i := range pieces {
		piece := &pieces[i]
		if !piece.HasCampaign() {
			continue
		}
		if !w.AllTime() {
			if piece.EngagementLoggedAt == nil || !w.Contains(*piece.EngagementLoggedAt) {
				continue
			}
		}

		agg := out[*piece.CampaignID]
		agg.EngagementRaw += PieceEngagement(piece)
		if piece.Rating != nil {
			agg.RatingSum += *piece.Rating
			agg.RatingCount++
		}
		out[*piece.CampaignID] = agg
	}
	return out
}
