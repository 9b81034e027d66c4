// Package analytics provides click event capture and processing.
package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pulseboard/pulseboard/internal/metrics"
)

const (
	// StreamKey is the Redis stream for click events.
	StreamKey = "stream:clicks"

	// RejectedStreamKey keeps entries the ingester could not turn into a
	// valid click, with the reason, for inspection.
	RejectedStreamKey = "stream:clicks:rejected"

	// MaxStreamLen is the approximate max length of the stream.
	MaxStreamLen = 100000

	// PublishTimeout is the max time to wait for Redis publish.
	PublishTimeout = 100 * time.Millisecond
)

// ClickEventPayload is the compact event format carried on the stream.
type ClickEventPayload struct {
	Slug        string `json:"s"`
	LinkID      string `json:"lid"`
	Referer     string `json:"r,omitempty"`  // truncated
	UserAgent   string `json:"ua,omitempty"` // truncated
	IPHash      string `json:"ih"`
	Device      string `json:"d"`
	CountryCode string `json:"cc,omitempty"`
	ClickedAt   int64  `json:"t"` // Unix milliseconds
}

// Publisher enqueues click events to Redis stream.
type Publisher struct {
	redis   redis.Cmdable
	logger  *slog.Logger
	metrics metrics.Recorder
	timeout time.Duration
}

// NewPublisher creates a new click event publisher.
func NewPublisher(client redis.Cmdable, logger *slog.Logger, recorder metrics.Recorder) *Publisher {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &Publisher{
		redis:   client,
		logger:  logger.With("component", "analytics.publisher"),
		metrics: recorder,
		timeout: PublishTimeout,
	}
}

// Publish adds a click event to the stream synchronously.
func (p *Publisher) Publish(ctx context.Context, event ClickEventPayload) (string, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return "", fmt.Errorf("marshal event: %w", err)
	}

	id, err := p.redis.XAdd(ctx, &redis.XAddArgs{
		Stream: StreamKey,
		MaxLen: MaxStreamLen,
		Approx: true,
		ID:     "*",
		Values: map[string]any{"payload": string(data)},
	}).Result()
	if err != nil {
		return "", fmt.Errorf("xadd: %w", err)
	}

	return id, nil
}

// PublishAsync records a click without blocking the caller. The write runs
// on a detached context so it survives the request; failures are logged and
// counted as dropped, never retried.
func (p *Publisher) PublishAsync(event ClickEventPayload) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		defer cancel()

		streamID, err := p.Publish(ctx, event)
		if err != nil {
			p.logger.Warn("click_publish_dropped",
				"slug", event.Slug,
				"error", err,
			)
			p.metrics.IncClickPublished("dropped")
			return
		}

		p.logger.Debug("click_published",
			"slug", event.Slug,
			"stream_id", streamID,
		)
		p.metrics.IncClickPublished("success")
	}()
}
