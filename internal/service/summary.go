package service

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/pulseboard/pulseboard/internal/model"
)

const (
	topLinksLimit  = 10
	unknownChannel = "unknown"
	summaryDays    = 30
)

// SummaryStore is the persistence the analytics summary reads.
type SummaryStore interface {
	ProductOwners
	ListLinks(ctx context.Context, productID string) ([]model.Link, error)
	ListClickFacts(ctx context.Context, linkIDs []string, since time.Time) ([]model.ClickFact, error)
}

// AnalyticsService builds the link-level analytics overview.
type AnalyticsService struct {
	store  SummaryStore
	logger *slog.Logger
	now    func() time.Time
}

// NewAnalyticsService creates a new AnalyticsService.
func NewAnalyticsService(store SummaryStore, logger *slog.Logger) *AnalyticsService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnalyticsService{
		store:  store,
		logger: logger.With("component", "service.analytics"),
		now:    time.Now,
	}
}

// Summary returns totals, channel and daily breakdowns for a product's links.
// TotalClicks and ByChannel read the click counter-cache; the 7d, 30d and
// daily figures are counted from click facts of the last 30 days.
func (s *AnalyticsService) Summary(ctx context.Context, productID string) (*model.AnalyticsSummary, error) {
	if err := authorizeProduct(ctx, s.store, productID); err != nil {
		return nil, err
	}

	links, err := s.store.ListLinks(ctx, productID)
	if err != nil {
		return nil, err
	}

	summary := &model.AnalyticsSummary{
		TotalLinks:  len(links),
		TopLinks:    []*model.Link{},
		ByChannel:   make(map[string]int64),
		DailyClicks: make(map[string]int64),
	}
	if len(links) == 0 {
		return summary, nil
	}

	ids := make([]string, 0, len(links))
	for i := range links {
		l := &links[i]
		ids = append(ids, l.ID)
		summary.TotalClicks += l.ClickCount

		channel := l.UTM.Source
		if channel == "" {
			channel = unknownChannel
		}
		summary.ByChannel[channel] += l.ClickCount
	}

	now := s.now().UTC()
	since30 := now.AddDate(0, 0, -summaryDays)
	since7 := now.AddDate(0, 0, -7)

	facts, err := s.store.ListClickFacts(ctx, ids, since30)
	if err != nil {
		return nil, err
	}
	for _, f := range facts {
		at := f.ClickedAt.UTC()
		if at.Before(since30) {
			continue
		}
		summary.Clicks30d++
		if !at.Before(since7) {
			summary.Clicks7d++
		}
		summary.DailyClicks[at.Format(time.DateOnly)]++
	}

	summary.TopLinks = topLinks(links, topLinksLimit)

	s.logger.Debug("analytics_summary_built",
		"product_id", productID,
		"links", len(links),
		"clicks_30d", summary.Clicks30d,
	)
	return summary, nil
}

// topLinks returns up to n links ordered by click count, newest first on ties.
func topLinks(links []model.Link, n int) []*model.Link {
	sorted := make([]*model.Link, 0, len(links))
	for i := range links {
		sorted = append(sorted, &links[i])
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].ClickCount != sorted[j].ClickCount {
			return sorted[i].ClickCount > sorted[j].ClickCount
		}
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}
