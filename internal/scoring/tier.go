package scoring

// Tier is the display bucket of a composite or normalized score.
type Tier string

const (
	TierNoData          Tier = "no_data"
	TierTop             Tier = "top"
	TierModerate        Tier = "moderate"
	TierLow             Tier = "low"
	TierUnderperforming Tier = "underperforming"
)

// TierFor buckets a 0-100 score. An exact zero means nothing was measured.
func TierFor(score int) Tier {
	switch {
	case score == 0:
		return TierNoData
	case score >= 80:
		return TierTop
	case score >= 50:
		return TierModerate
	case score >= 20:
		return TierLow
	default:
		return TierUnderperforming
	}
}
