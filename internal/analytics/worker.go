package analytics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pulseboard/pulseboard/internal/metrics"
	"github.com/pulseboard/pulseboard/internal/model"
)

// ConsumerGroup is the Redis consumer group shared by every ingester.
const ConsumerGroup = "click_ingest"

// rejectedStreamLen bounds the rejected-entry stream.
const rejectedStreamLen = 10000

// ErrWorkerStarted is returned by Run on a worker that is already running.
var ErrWorkerStarted = errors.New("click worker already started")

// Repository persists click events. InsertBatch must be idempotent on
// EventID and report how far each link's click counter advanced; events
// already stored count for nothing.
type Repository interface {
	InsertBatch(ctx context.Context, events []*model.ClickEvent) (model.CounterAdvance, error)
}

// WorkerConfig tunes the ingest loop. Zero values take the defaults.
type WorkerConfig struct {
	// ConsumerID names this process inside the consumer group.
	ConsumerID string

	// BatchSize is the most entries read or reclaimed per cycle.
	BatchSize int

	// Block is how long a read waits for new clicks.
	Block time.Duration

	// ReclaimIdle is how long an entry may sit unacknowledged with another
	// consumer before this one takes it over.
	ReclaimIdle time.Duration

	// Attempts bounds how often one batch is offered to the repository.
	// Attempt n waits n*Backoff before the next one.
	Attempts int
	Backoff  time.Duration
}

func (c WorkerConfig) withDefaults() WorkerConfig {
	if c.ConsumerID == "" {
		c.ConsumerID = NewConsumerID()
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 500
	}
	if c.Block <= 0 {
		c.Block = 5 * time.Second
	}
	if c.ReclaimIdle <= 0 {
		c.ReclaimIdle = 30 * time.Second
	}
	if c.Attempts <= 0 {
		c.Attempts = 3
	}
	if c.Backoff <= 0 {
		c.Backoff = time.Second
	}
	return c
}

// Worker moves clicks from the stream into the click log. Each cycle reads
// new entries; a cycle that finds none reclaims entries stranded by dead
// consumers and refreshes the queue depth gauge. Entries are acknowledged
// only after their batch is stored, so a crash or failed batch leaves them
// pending for redelivery. Entries that cannot become a valid click are
// copied to RejectedStreamKey and acknowledged.
type Worker struct {
	redis   redis.Cmdable
	repo    Repository
	cfg     WorkerConfig
	logger  *slog.Logger
	metrics metrics.Recorder

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewWorker creates a click ingest worker.
func NewWorker(client redis.Cmdable, repo Repository, cfg WorkerConfig, logger *slog.Logger, recorder metrics.Recorder) *Worker {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	cfg = cfg.withDefaults()
	return &Worker{
		redis:   client,
		repo:    repo,
		cfg:     cfg,
		logger:  logger.With("component", "analytics.worker", "consumer_id", cfg.ConsumerID),
		metrics: recorder,
	}
}

// Run ingests until ctx is cancelled or Shutdown is called. An interrupted
// batch rolls back and stays pending.
func (w *Worker) Run(ctx context.Context) error {
	w.mu.Lock()
	if w.done != nil {
		w.mu.Unlock()
		return ErrWorkerStarted
	}
	ctx, w.cancel = context.WithCancel(ctx)
	w.done = make(chan struct{})
	done := w.done
	w.mu.Unlock()
	defer close(done)

	if err := w.ensureGroup(ctx); err != nil {
		return fmt.Errorf("ensure consumer group: %w", err)
	}
	w.logger.Info("click_worker_started", "batch_size", w.cfg.BatchSize)

	for ctx.Err() == nil {
		if err := w.cycle(ctx); err != nil && ctx.Err() == nil {
			w.logger.Error("click_cycle_failed", "error", err)
			_ = sleepCtx(ctx, w.cfg.Backoff)
		}
	}

	w.logger.Info("click_worker_stopped")
	return nil
}

// Shutdown stops Run and waits for it to return or for ctx to expire.
func (w *Worker) Shutdown(ctx context.Context) error {
	w.mu.Lock()
	cancel, done := w.cancel, w.done
	w.mu.Unlock()
	if done == nil {
		return nil
	}

	cancel()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		w.logger.Warn("click_worker_shutdown_timeout")
		return ctx.Err()
	}
}

func (w *Worker) ensureGroup(ctx context.Context) error {
	err := w.redis.XGroupCreateMkStream(ctx, StreamKey, ConsumerGroup, "0").Err()
	if err != nil && !isConsumerGroupExistsError(err) {
		return err
	}
	return nil
}

// cycle handles one read. With nothing new, it reclaims instead.
func (w *Worker) cycle(ctx context.Context) error {
	msgs, err := w.read(ctx)
	if err != nil {
		return err
	}
	if len(msgs) == 0 {
		w.refreshQueueDepth(ctx)
		if msgs, err = w.reclaim(ctx); err != nil {
			return err
		}
		if len(msgs) == 0 {
			return nil
		}
		w.logger.Info("click_entries_reclaimed", "entries", len(msgs))
	}
	return w.ingest(ctx, msgs)
}

func (w *Worker) read(ctx context.Context) ([]redis.XMessage, error) {
	streams, err := w.redis.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    ConsumerGroup,
		Consumer: w.cfg.ConsumerID,
		Streams:  []string{StreamKey, ">"},
		Count:    int64(w.cfg.BatchSize),
		Block:    w.cfg.Block,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read clicks: %w", err)
	}
	if len(streams) == 0 {
		return nil, nil
	}
	return streams[0].Messages, nil
}

// reclaim takes over entries left unacknowledged for ReclaimIdle by any
// consumer, scanning the pending list from the start.
func (w *Worker) reclaim(ctx context.Context) ([]redis.XMessage, error) {
	msgs, _, err := w.redis.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   StreamKey,
		Group:    ConsumerGroup,
		Consumer: w.cfg.ConsumerID,
		MinIdle:  w.cfg.ReclaimIdle,
		Start:    "0-0",
		Count:    int64(w.cfg.BatchSize),
	}).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("reclaim clicks: %w", err)
	}
	return msgs, nil
}

// refreshQueueDepth publishes pending plus unread entries of the group.
func (w *Worker) refreshQueueDepth(ctx context.Context) {
	groups, err := w.redis.XInfoGroups(ctx, StreamKey).Result()
	if err != nil {
		w.logger.Warn("click_queue_depth_unavailable", "error", err)
		return
	}
	for _, g := range groups {
		if g.Name == ConsumerGroup {
			w.metrics.SetClickQueueDepth(g.Pending + g.Lag)
			return
		}
	}
}

// ingest decodes a batch, stores the valid clicks and acknowledges every
// entry. A store failure leaves the whole batch pending.
func (w *Worker) ingest(ctx context.Context, msgs []redis.XMessage) error {
	events := make([]*model.ClickEvent, 0, len(msgs))
	ids := make([]string, 0, len(msgs))
	for _, msg := range msgs {
		ids = append(ids, msg.ID)
		event, err := decodeClick(msg)
		if err != nil {
			w.reject(ctx, msg, err)
			continue
		}
		events = append(events, event)
	}

	if len(events) > 0 {
		if err := w.store(ctx, events); err != nil {
			return err
		}
	}

	if err := w.redis.XAck(ctx, StreamKey, ConsumerGroup, ids...).Err(); err != nil {
		return fmt.Errorf("ack clicks: %w", err)
	}
	return nil
}

// reject files an entry under RejectedStreamKey. A failed write is logged;
// the entry is still acknowledged since retrying cannot make it valid.
func (w *Worker) reject(ctx context.Context, msg redis.XMessage, cause error) {
	reason := rejectReason(cause)
	w.logger.Warn("click_rejected", "entry_id", msg.ID, "reason", reason, "error", cause)
	w.metrics.IncClickProcessed("rejected")

	err := w.redis.XAdd(ctx, &redis.XAddArgs{
		Stream: RejectedStreamKey,
		MaxLen: rejectedStreamLen,
		Approx: true,
		Values: map[string]any{
			"entry_id":    msg.ID,
			"reason":      reason,
			"error":       cause.Error(),
			"payload":     fmt.Sprint(msg.Values["payload"]),
			"rejected_at": time.Now().UTC().Format(time.RFC3339),
		},
	}).Err()
	if err != nil {
		w.logger.Error("click_reject_write_failed", "entry_id", msg.ID, "error", err)
	}
}

// store offers the batch to the repository up to Attempts times.
func (w *Worker) store(ctx context.Context, events []*model.ClickEvent) error {
	start := time.Now()
	for attempt := 1; ; attempt++ {
		advance, err := w.repo.InsertBatch(ctx, events)
		if err == nil {
			w.recordStored(events, advance, time.Since(start))
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if attempt >= w.cfg.Attempts {
			for range events {
				w.metrics.IncClickProcessed("failed")
			}
			w.logger.Error("click_batch_failed",
				"clicks", len(events),
				"attempts", attempt,
				"first_entry_id", events[0].EventID,
				"error", err,
			)
			return fmt.Errorf("store %d clicks: %w", len(events), err)
		}

		delay := time.Duration(attempt) * w.cfg.Backoff
		w.logger.Warn("click_batch_retry", "attempt", attempt, "delay_ms", delay.Milliseconds(), "error", err)
		if err := sleepCtx(ctx, delay); err != nil {
			return err
		}
	}
}

func (w *Worker) recordStored(events []*model.ClickEvent, advance model.CounterAdvance, took time.Duration) {
	stored := advance.Total()
	duplicates := int64(len(events)) - stored

	w.logger.Info("click_batch_stored",
		"clicks", len(events),
		"stored", stored,
		"duplicates", duplicates,
		"counter_advance", map[string]int64(advance),
		"duration_ms", float64(took.Microseconds())/1000,
	)

	w.metrics.ObserveClickBatchSize(len(events))
	w.metrics.ObserveClickBatchDuration(took)
	for i := int64(0); i < stored; i++ {
		w.metrics.IncClickProcessed("stored")
	}
	for i := int64(0); i < duplicates; i++ {
		w.metrics.IncClickProcessed("duplicate")
	}
	for _, e := range events {
		w.metrics.ObserveClickIngestLag(time.Since(e.ClickedAt))
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// isConsumerGroupExistsError reports Redis' BUSYGROUP reply.
func isConsumerGroupExistsError(err error) bool {
	return err != nil && strings.HasPrefix(err.Error(), "BUSYGROUP")
}
