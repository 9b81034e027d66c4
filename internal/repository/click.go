package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/pulseboard/pulseboard/internal/model"
)

// ClickRepository provides database access for click events.
type ClickRepository struct {
	repo *Repository
}

// NewClickRepository creates a new ClickRepository.
func NewClickRepository(repo *Repository) *ClickRepository {
	return &ClickRepository{repo: repo}
}

// InsertBatch stores click events and advances each link's click counter by
// the number of events actually inserted for it. Redelivered events hit the
// event_id constraint and are skipped, so the counter is never double counted.
// Both writes commit together. The returned advance has one entry per link
// that gained clicks.
func (r *ClickRepository) InsertBatch(ctx context.Context, events []*model.ClickEvent) (model.CounterAdvance, error) {
	advance := model.CounterAdvance{}
	if len(events) == 0 {
		return advance, nil
	}

	tx, err := r.repo.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	query := `
		INSERT INTO clicks (
			id, event_id, link_id, slug, clicked_at, ip_hash,
			user_agent, referer, device, country_code, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW())
		ON CONFLICT (event_id) DO NOTHING
		RETURNING link_id
	`

	batch := &pgx.Batch{}
	for _, event := range events {
		batch.Queue(query,
			event.ID,
			event.EventID,
			event.LinkID,
			event.Slug,
			event.ClickedAt,
			event.IPHash,
			nullableString(event.UserAgent),
			nullableString(event.Referer),
			string(event.Device),
			nullableString(event.CountryCode),
		)
	}

	results := tx.SendBatch(ctx, batch)
	for i := range events {
		var linkID string
		if err := results.QueryRow().Scan(&linkID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				continue // duplicate delivery
			}
			results.Close()
			return nil, fmt.Errorf("batch insert event %d: %w", i, err)
		}
		advance[linkID]++
	}
	if err := results.Close(); err != nil {
		return nil, fmt.Errorf("close batch: %w", err)
	}

	if ids, counts := advanceColumns(advance); len(ids) > 0 {
		_, err := tx.Exec(ctx, `
			UPDATE links AS l
			SET click_count = l.click_count + v.n
			FROM unnest($1::text[], $2::bigint[]) AS v(id, n)
			WHERE l.id = v.id
		`, ids, counts)
		if err != nil {
			return nil, fmt.Errorf("increment click counts: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return advance, nil
}

// advanceColumns splits an advance into parallel id/count slices ordered by
// link ID, so concurrent batches lock link rows in the same order.
func advanceColumns(advance model.CounterAdvance) ([]string, []int64) {
	ids := make([]string, 0, len(advance))
	for id := range advance {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	counts := make([]int64, len(ids))
	for i, id := range ids {
		counts[i] = advance[id]
	}
	return ids, counts
}

// ListClickFacts returns the click facts of the given links at or after since.
func (r *Repository) ListClickFacts(ctx context.Context, linkIDs []string, since time.Time) ([]model.ClickFact, error) {
	if len(linkIDs) == 0 {
		return nil, nil
	}

	query := `
		SELECT link_id, clicked_at
		FROM clicks
		WHERE link_id = ANY($1) AND clicked_at >= $2
	`

	rows, err := r.pool.Query(ctx, query, linkIDs, since)
	if err != nil {
		return nil, fmt.Errorf("failed to list click facts: %w", err)
	}

	facts, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.ClickFact, error) {
		var f model.ClickFact
		err := row.Scan(&f.LinkID, &f.ClickedAt)
		return f, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan click facts: %w", err)
	}
	return facts, nil
}
