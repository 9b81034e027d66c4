package model

// CampaignScore is one row of the campaign scoreboard.
type CampaignScore struct {
	CampaignID      string `json:"campaignId"`
	AvatarID        string `json:"avatarId"`
	Channel         string `json:"channel"`
	Angle           string `json:"angle"`
	Category        string `json:"category"`
	TotalClicks     int64  `json:"totalClicks"`
	LinkCount       int    `json:"linkCount"`
	EngagementRaw   int64  `json:"engagementRaw"`
	NormalizedScore int    `json:"normalizedScore"`
}

// AvatarScore is one row of the avatar scoreboard.
// TopChannel is nil when none of the avatar's channels has clicks.
type AvatarScore struct {
	AvatarID        string  `json:"avatarId"`
	Name            string  `json:"name"`
	TotalClicks     int64   `json:"totalClicks"`
	CampaignCount   int     `json:"campaignCount"`
	NormalizedScore int     `json:"normalizedScore"`
	TopChannel      *string `json:"topChannel"`
}

// ChannelScore is one row of the channel scoreboard.
type ChannelScore struct {
	Channel         string `json:"channel"`
	TotalClicks     int64  `json:"totalClicks"`
	CampaignCount   int    `json:"campaignCount"`
	NormalizedScore int    `json:"normalizedScore"`
}

// PerformanceData is the full result of one scoring call.
type PerformanceData struct {
	Campaigns   []CampaignScore `json:"campaigns"`
	Avatars     []AvatarScore   `json:"avatars"`
	Channels    []ChannelScore  `json:"channels"`
	TotalClicks int64           `json:"totalClicks"`
	HasData     bool            `json:"hasData"`
}

// EmptyPerformanceData returns the zero-valued result for a product with no
// campaigns. Slices are non-nil so they encode as [] rather than null.
func EmptyPerformanceData() *PerformanceData {
	return &PerformanceData{
		Campaigns: []CampaignScore{},
		Avatars:   []AvatarScore{},
		Channels:  []ChannelScore{},
	}
}
