package dto

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/pulseboard/pulseboard/internal/model"
	"github.com/pulseboard/pulseboard/internal/scoring"
)

func TestToPerformanceResponse(t *testing.T) {
	t.Parallel()

	top := "linkedin"
	data := &model.PerformanceData{
		Campaigns: []model.CampaignScore{
			{CampaignID: "c1", NormalizedScore: 85},
			{CampaignID: "c2", NormalizedScore: 0},
		},
		Avatars:     []model.AvatarScore{{AvatarID: "a1", NormalizedScore: 55, TopChannel: &top}},
		Channels:    []model.ChannelScore{{Channel: "linkedin", NormalizedScore: 19}},
		TotalClicks: 42,
		HasData:     true,
	}

	resp := ToPerformanceResponse(scoring.Period7d, data)

	if resp.Campaigns[0].Tier != scoring.TierTop || resp.Campaigns[1].Tier != scoring.TierNoData {
		t.Errorf("campaign tiers = %s, %s", resp.Campaigns[0].Tier, resp.Campaigns[1].Tier)
	}
	if resp.Avatars[0].Tier != scoring.TierModerate {
		t.Errorf("avatar tier = %s", resp.Avatars[0].Tier)
	}
	if resp.Channels[0].Tier != scoring.TierUnderperforming {
		t.Errorf("channel tier = %s", resp.Channels[0].Tier)
	}

	body, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, field := range []string{`"campaignId":"c1"`, `"normalizedScore":85`, `"tier":"top"`, `"topChannel":"linkedin"`, `"totalClicks":42`, `"hasData":true`, `"period":"7d"`} {
		if !strings.Contains(string(body), field) {
			t.Errorf("JSON missing %s: %s", field, body)
		}
	}
}

func TestToPerformanceResponse_EmptyEncodesArrays(t *testing.T) {
	t.Parallel()

	body, err := json.Marshal(ToPerformanceResponse(scoring.PeriodAll, model.EmptyPerformanceData()))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(body), `"campaigns":[]`) || !strings.Contains(string(body), `"hasData":false`) {
		t.Errorf("unexpected body: %s", body)
	}
}
