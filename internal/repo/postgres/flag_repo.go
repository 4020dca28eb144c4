package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// FlagRepo owns the append-only flag event log. Events are never updated
// or deleted; clearing a flag only resets the aggregate on the content row.
type FlagRepo struct {
	pool *pgxpool.Pool
}

type FlagEventRecord struct {
	ID         int64
	ContentID  int64
	ReporterID int64
	Reason     string
	CreatedAt  time.Time
}

func NewFlagRepo(pool *pgxpool.Pool) *FlagRepo {
	return &FlagRepo{pool: pool}
}

func (r *FlagRepo) Append(ctx context.Context, tx pgx.Tx, contentID, reporterID int64, reason string) (FlagEventRecord, error) {
	if tx == nil {
		return FlagEventRecord{}, fmt.Errorf("transaction is required")
	}
	if contentID <= 0 || reporterID <= 0 {
		return FlagEventRecord{}, fmt.Errorf("invalid flag payload")
	}
	if strings.TrimSpace(reason) == "" {
		return FlagEventRecord{}, fmt.Errorf("flag reason is required")
	}

	var event FlagEventRecord
	err := tx.QueryRow(ctx, `
INSERT INTO flag_events (
	content_id,
	reporter_id,
	reason,
	created_at
) VALUES ($1, $2, $3, NOW())
RETURNING id, content_id, reporter_id, reason, created_at
`, contentID, reporterID, strings.TrimSpace(reason)).Scan(
		&event.ID,
		&event.ContentID,
		&event.ReporterID,
		&event.Reason,
		&event.CreatedAt,
	)
	if err != nil {
		return FlagEventRecord{}, fmt.Errorf("append flag event: %w", err)
	}

	return event, nil
}

func (r *FlagRepo) ListByContent(ctx context.Context, contentID int64) ([]FlagEventRecord, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}
	if contentID <= 0 {
		return nil, fmt.Errorf("invalid content id")
	}

	rows, err := r.pool.Query(ctx, `
SELECT id, content_id, reporter_id, reason, created_at
FROM flag_events
WHERE content_id = $1
ORDER BY created_at ASC, id ASC
`, contentID)
	if err != nil {
		return nil, fmt.Errorf("list flag events: %w", err)
	}
	defer rows.Close()

	events := make([]FlagEventRecord, 0)
	for rows.Next() {
		var event FlagEventRecord
		if err := rows.Scan(&event.ID, &event.ContentID, &event.ReporterID, &event.Reason, &event.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan flag event: %w", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate flag events: %w", err)
	}

	return events, nil
}

func (r *FlagRepo) CountByContent(ctx context.Context, contentID int64) (int, error) {
	if r.pool == nil {
		return 0, fmt.Errorf("postgres pool is nil")
	}
	if contentID <= 0 {
		return 0, fmt.Errorf("invalid content id")
	}

	var count int
	if err := r.pool.QueryRow(ctx, `
SELECT COUNT(*)
FROM flag_events
WHERE content_id = $1
`, contentID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count flag events: %w", err)
	}

	return count, nil
}

func (r *FlagRepo) LastReason(ctx context.Context, contentID int64) (string, error) {
	if r.pool == nil {
		return "", fmt.Errorf("postgres pool is nil")
	}
	if contentID <= 0 {
		return "", fmt.Errorf("invalid content id")
	}

	var reason string
	err := r.pool.QueryRow(ctx, `
SELECT reason
FROM flag_events
WHERE content_id = $1
ORDER BY created_at DESC, id DESC
LIMIT 1
`, contentID).Scan(&reason)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("read last flag reason: %w", err)
	}

	return reason, nil
}
