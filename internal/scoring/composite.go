package scoring

import "math"

// Composite blend weights. They sum to 1.
const (
	ClickWeight      = 0.4
	EngagementWeight = 0.4
	RatingWeight     = 0.2
)

// Rating signal levels on the 0-100 scale.
const (
	RatingSignalUp      = 100.0
	RatingSignalNeutral = 50.0
	RatingSignalDown    = 0.0
)

// CompositeInput carries one campaign's totals together with the cohort
// maxima they are normalized against. Rating is the quantized campaign
// rating; nil means no rated content.
type CompositeInput struct {
	Clicks           int64
	MaxClicks        int64
	EngagementRaw    int64
	MaxEngagementRaw int64
	Rating           *int
}

// CompositeScore blends click volume, engagement volume and rating into a
// single 0-100 score.
//
// A zero maximum contributes a zero signal rather than dividing by zero, and
// a missing or neutral rating contributes the neutral signal.
func CompositeScore(in CompositeInput) int {
	clickSignal := signal(in.Clicks, in.MaxClicks)
	engagementSignal := signal(in.EngagementRaw, in.MaxEngagementRaw)

	return roundHalfUp(clickSignal*ClickWeight +
		engagementSignal*EngagementWeight +
		ratingSignal(in.Rating)*RatingWeight)
}

// NormalizedScore scales value against max to an integer in [0, 100].
// Used for the single-signal avatar and channel scoreboards.
func NormalizedScore(value, max int64) int {
	return roundHalfUp(signal(value, max))
}

func signal(value, max int64) float64 {
	if max <= 0 {
		return 0
	}
	s := float64(value) / float64(max) * 100
	return math.Min(math.Max(s, 0), 100)
}

func ratingSignal(rating *int) float64 {
	if rating == nil {
		return RatingSignalNeutral
	}
	switch *rating {
	case 1:
		return RatingSignalUp
	case -1:
		return RatingSignalDown
	default:
		return RatingSignalNeutral
	}
}

func roundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}
