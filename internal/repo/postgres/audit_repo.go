package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AuditRepo struct {
	pool *pgxpool.Pool
}

type ModerationAuditRecord struct {
	ID        int64
	ContentID int64
	Action    string
	ActorID   int64
	Note      string
	CreatedAt time.Time
}

func NewAuditRepo(pool *pgxpool.Pool) *AuditRepo {
	return &AuditRepo{pool: pool}
}

func (r *AuditRepo) Append(ctx context.Context, tx pgx.Tx, contentID int64, action string, actorID int64, note string) error {
	if tx == nil {
		return fmt.Errorf("transaction is required")
	}
	if contentID <= 0 || actorID <= 0 || strings.TrimSpace(action) == "" {
		return fmt.Errorf("invalid audit payload")
	}

	if _, err := tx.Exec(ctx, `
INSERT INTO moderation_audit (
	content_id,
	action,
	actor_id,
	note,
	created_at
) VALUES ($1, $2, $3, $4, NOW())
`, contentID, strings.ToLower(strings.TrimSpace(action)), actorID, strings.TrimSpace(note)); err != nil {
		return fmt.Errorf("append moderation audit: %w", err)
	}

	return nil
}

func (r *AuditRepo) ListByContent(ctx context.Context, contentID int64) ([]ModerationAuditRecord, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}
	if contentID <= 0 {
		return nil, fmt.Errorf("invalid content id")
	}

	rows, err := r.pool.Query(ctx, `
SELECT id, content_id, action, actor_id, note, created_at
FROM moderation_audit
WHERE content_id = $1
ORDER BY created_at ASC, id ASC
`, contentID)
	if err != nil {
		return nil, fmt.Errorf("list moderation audit: %w", err)
	}
	defer rows.Close()

	records := make([]ModerationAuditRecord, 0)
	for rows.Next() {
		var record ModerationAuditRecord
		if err := rows.Scan(&record.ID, &record.ContentID, &record.Action, &record.ActorID, &record.Note, &record.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan moderation audit: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate moderation audit: %w", err)
	}

	return records, nil
}
