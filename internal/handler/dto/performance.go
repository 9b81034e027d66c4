package dto

import (
	"github.com/pulseboard/pulseboard/internal/model"
	"github.com/pulseboard/pulseboard/internal/scoring"
)

// CampaignScoreResponse is a campaign row with its display tier.
type CampaignScoreResponse struct {
	model.CampaignScore
	Tier scoring.Tier `json:"tier"`
}

// AvatarScoreResponse is an avatar row with its display tier.
type AvatarScoreResponse struct {
	model.AvatarScore
	Tier scoring.Tier `json:"tier"`
}

// ChannelScoreResponse is a channel row with its display tier.
type ChannelScoreResponse struct {
	model.ChannelScore
	Tier scoring.Tier `json:"tier"`
}

// PerformanceResponse is the body of GET /products/{productID}/performance.
type PerformanceResponse struct {
	Period      scoring.Period          `json:"period"`
	Campaigns   []CampaignScoreResponse `json:"campaigns"`
	Avatars     []AvatarScoreResponse   `json:"avatars"`
	Channels    []ChannelScoreResponse  `json:"channels"`
	TotalClicks int64                   `json:"totalClicks"`
	HasData     bool                    `json:"hasData"`
}

// ToPerformanceResponse decorates scoreboards with tiers. Campaign rows are
// tiered by their composite score, avatar and channel rows by their
// normalized click score.
func ToPerformanceResponse(period scoring.Period, data *model.PerformanceData) *PerformanceResponse {
	resp := &PerformanceResponse{
		Period:      period,
		Campaigns:   make([]CampaignScoreResponse, 0, len(data.Campaigns)),
		Avatars:     make([]AvatarScoreResponse, 0, len(data.Avatars)),
		Channels:    make([]ChannelScoreResponse, 0, len(data.Channels)),
		TotalClicks: data.TotalClicks,
		HasData:     data.HasData,
	}
	for _, c := range data.Campaigns {
		resp.Campaigns = append(resp.Campaigns, CampaignScoreResponse{c, scoring.TierFor(c.NormalizedScore)})
	}
	for _, a := range data.Avatars {
		resp.Avatars = append(resp.Avatars, AvatarScoreResponse{a, scoring.TierFor(a.NormalizedScore)})
	}
	for _, ch := range data.Channels {
		resp.Channels = append(resp.Channels, ChannelScoreResponse{ch, scoring.TierFor(ch.NormalizedScore)})
	}
	return resp
}
