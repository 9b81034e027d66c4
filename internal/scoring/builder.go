package scoring

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pulseboard/pulseboard/internal/metrics"
	"github.com/pulseboard/pulseboard/internal/model"
)

// Source provides the read-only snapshot a scoring call works from.
type Source interface {
	ListCampaigns(ctx context.Context, productID string) ([]model.Campaign, error)
	ListLinks(ctx context.Context, productID string) ([]model.Link, error)
	ListContentPieces(ctx context.Context, productID string) ([]model.ContentPiece, error)
	ListActiveAvatars(ctx context.Context, productID string) ([]model.Avatar, error)
	ListClickFacts(ctx context.Context, linkIDs []string, since time.Time) ([]model.ClickFact, error)
}

// Builder assembles campaign, avatar and channel scoreboards.
type Builder struct {
	source  Source
	logger  *slog.Logger
	metrics metrics.Recorder
	now     func() time.Time
}

// NewBuilder creates a scoreboard builder.
func NewBuilder(source Source, logger *slog.Logger, recorder metrics.Recorder) *Builder {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &Builder{
		source:  source,
		logger:  logger.With("component", "scoring.builder"),
		metrics: recorder,
		now:     time.Now,
	}
}

// snapshot is everything one Build call reads.
type snapshot struct {
	campaigns []model.Campaign
	links     []model.Link
	pieces    []model.ContentPiece
	avatars   []model.Avatar
	clicks    []model.ClickFact
}

// Build computes the scoreboards for productID over period.
//
// Only a failure to read campaigns is returned. Missing links, content,
// avatars or click facts degrade to empty so the caller still gets a
// well-formed, if thinner, result.
func (b *Builder) Build(ctx context.Context, productID string, period Period) (*model.PerformanceData, error) {
	start := time.Now()
	window := WindowFor(period, b.now())

	snap, err := b.load(ctx, productID, window)
	if err != nil {
		return nil, err
	}
	if len(snap.campaigns) == 0 {
		return model.EmptyPerformanceData(), nil
	}

	data := build(snap, window)

	b.metrics.ObserveScoreBuild(string(period), time.Since(start))
	b.logger.DebugContext(ctx, "scores_built",
		"product_id", productID,
		"period", string(period),
		"campaigns", len(data.Campaigns),
		"total_clicks", data.TotalClicks,
		"duration_ms", float64(time.Since(start).Microseconds())/1000,
	)
	return data, nil
}

func (b *Builder) load(ctx context.Context, productID string, window Window) (*snapshot, error) {
	snap := &snapshot{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		campaigns, err := b.source.ListCampaigns(gctx, productID)
		if err != nil {
			return fmt.Errorf("list campaigns: %w", err)
		}
		snap.campaigns = campaigns
		return nil
	})
	g.Go(func() error {
		links, err := b.source.ListLinks(gctx, productID)
		if err != nil {
			b.degraded(gctx, "links", productID, err)
			return nil
		}
		snap.links = links
		return nil
	})
	g.Go(func() error {
		pieces, err := b.source.ListContentPieces(gctx, productID)
		if err != nil {
			b.degraded(gctx, "content_pieces", productID, err)
			return nil
		}
		snap.pieces = pieces
		return nil
	})
	g.Go(func() error {
		avatars, err := b.source.ListActiveAvatars(gctx, productID)
		if err != nil {
			b.degraded(gctx, "avatars", productID, err)
			return nil
		}
		snap.avatars = avatars
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	if window.AllTime() || len(snap.campaigns) == 0 || len(snap.links) == 0 {
		return snap, nil
	}

	linkIDs := make([]string, 0, len(snap.links))
	for _, link := range snap.links {
		linkIDs = append(linkIDs, link.ID)
	}
	clicks, err := b.source.ListClickFacts(ctx, linkIDs, window.Since)
	if err != nil {
		b.degraded(ctx, "click_facts", productID, err)
		clicks = nil
	}
	snap.clicks = clicks
	return snap, nil
}

func (b *Builder) degraded(ctx context.Context, relation, productID string, err error) {
	b.logger.WarnContext(ctx, "score_input_degraded",
		"relation", relation,
		"product_id", productID,
		"error", err,
	)
}

// build is the pure part of Build: aggregation, normalization and roll-ups.
func build(snap *snapshot, window Window) *model.PerformanceData {
	clicks := AggregateClicks(snap.links, snap.clicks, window)
	engagement := AggregateEngagement(snap.pieces, window)

	// Cohort maxima are taken once so every campaign is scored on the same scale.
	var maxClicks, maxEngagement int64 = 1, 1
	for _, c := range clicks {
		maxClicks = max(maxClicks, c.TotalClicks)
	}
	hasEngagement := false
	for _, e := range engagement {
		maxEngagement = max(maxEngagement, e.EngagementRaw)
		if e.EngagementRaw > 0 {
			hasEngagement = true
		}
	}

	campaigns := make([]model.CampaignScore, 0, len(snap.campaigns))
	var totalClicks int64
	for _, c := range snap.campaigns {
		cc := clicks[c.ID]
		ce := engagement[c.ID]
		campaigns = append(campaigns, model.CampaignScore{
			CampaignID:    c.ID,
			AvatarID:      c.AvatarID,
			Channel:       c.Channel,
			Angle:         c.Angle,
			Category:      string(c.Category),
			TotalClicks:   cc.TotalClicks,
			LinkCount:     cc.LinkCount,
			EngagementRaw: ce.EngagementRaw,
			NormalizedScore: CompositeScore(CompositeInput{
				Clicks:           cc.TotalClicks,
				MaxClicks:        maxClicks,
				EngagementRaw:    ce.EngagementRaw,
				MaxEngagementRaw: maxEngagement,
				Rating:           ce.QuantizedRating(),
			}),
		})
		totalClicks += cc.TotalClicks
	}

	return &model.PerformanceData{
		Campaigns:   campaigns,
		Avatars:     rollUpAvatars(campaigns, snap.avatars),
		Channels:    rollUpChannels(campaigns),
		TotalClicks: totalClicks,
		HasData:     totalClicks > 0 || hasEngagement,
	}
}

type avatarTotals struct {
	clicks    int64
	campaigns int
	channels  map[string]int64
}

// rollUpAvatars emits a row per active avatar. The normalization maximum is
// taken over every avatar that owns a campaign, retired ones included.
func rollUpAvatars(campaigns []model.CampaignScore, avatars []model.Avatar) []model.AvatarScore {
	totals := make(map[string]*avatarTotals, len(avatars))
	for _, cs := range campaigns {
		t := totals[cs.AvatarID]
		if t == nil {
			t = &avatarTotals{channels: make(map[string]int64)}
			totals[cs.AvatarID] = t
		}
		t.clicks += cs.TotalClicks
		t.campaigns++
		t.channels[cs.Channel] += cs.TotalClicks
	}

	var maxClicks int64 = 1
	for _, t := range totals {
		maxClicks = max(maxClicks, t.clicks)
	}

	out := make([]model.AvatarScore, 0, len(avatars))
	for _, a := range avatars {
		score := model.AvatarScore{AvatarID: a.ID, Name: a.Name}
		if t := totals[a.ID]; t != nil {
			score.TotalClicks = t.clicks
			score.CampaignCount = t.campaigns
			score.TopChannel = topChannel(t.channels)
		}
		score.NormalizedScore = NormalizedScore(score.TotalClicks, maxClicks)
		out = append(out, score)
	}
	return out
}

// topChannel returns the channel with the most clicks, the lexically smallest
// on ties, or nil when no channel has any clicks.
func topChannel(channels map[string]int64) *string {
	names := make([]string, 0, len(channels))
	for name := range channels {
		names = append(names, name)
	}
	sort.Strings(names)

	var best string
	var bestClicks int64
	for _, name := range names {
		if channels[name] > bestClicks {
			best, bestClicks = name, channels[name]
		}
	}
	if bestClicks == 0 {
		return nil
	}
	return &best
}

// rollUpChannels scores raw channel labels, highest clicks first.
func rollUpChannels(campaigns []model.CampaignScore) []model.ChannelScore {
	index := make(map[string]int)
	out := make([]model.ChannelScore, 0)
	for _, cs := range campaigns {
		i, ok := index[cs.Channel]
		if !ok {
			i = len(out)
			index[cs.Channel] = i
			out = append(out, model.ChannelScore{Channel: cs.Channel})
		}
		out[i].TotalClicks += cs.TotalClicks
		out[i].CampaignCount++
	}

	var maxClicks int64 = 1
	for _, ch := range out {
		maxClicks = max(maxClicks, ch.TotalClicks)
	}
	for i := range out {
		out[i].NormalizedScore = NormalizedScore(out[i].TotalClicks, maxClicks)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalClicks != out[j].TotalClicks {
			return out[i].TotalClicks > out[j].TotalClicks
		}
		return out[i].Channel < out[j].Channel
	})
	return out
}
