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

var ErrContentNotFound = errors.New("content item not found")

type ContentRepo struct {
	pool *pgxpool.Pool
}

type ContentRecord struct {
	ID                   int64
	Kind                 string
	TopicID              *int64
	CategoryID           *int64
	AuthorID             int64
	Title                string
	Status               string
	IsFlagged            bool
	HasSensitiveContent  bool
	SensitiveContentType *string
	FlagCount            int
	LastFlagReason       *string
	IsHidden             bool
	IsDeleted            bool
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

type ContentStatsRecord struct {
	TotalTopics    int
	FlaggedTopics  int
	FlaggedPosts   int
	SensitiveCount int
}

type ListTopicsParams struct {
	Offset     int
	Limit      int
	CategoryID *int64
	Status     *string
}

const contentColumns = `
id, kind, topic_id, category_id, author_id, title, status,
is_flagged, has_sensitive_content, sensitive_content_type,
flag_count, last_flag_reason, is_hidden, is_deleted, created_at, updated_at`

func NewContentRepo(pool *pgxpool.Pool) *ContentRepo {
	return &ContentRepo{pool: pool}
}

func (r *ContentRepo) GetByID(ctx context.Context, contentID int64) (ContentRecord, error) {
	if r.pool == nil {
		return ContentRecord{}, fmt.Errorf("postgres pool is nil")
	}
	if contentID <= 0 {
		return ContentRecord{}, fmt.Errorf("invalid content id")
	}

	row := r.pool.QueryRow(ctx, `
SELECT `+contentColumns+`
FROM forum_content
WHERE id = $1
LIMIT 1
`, contentID)

	return scanContent(row)
}

// SetStatus writes the status unconditionally. Lock and archive are
// idempotent administrative overrides, so no current-status guard.
func (r *ContentRepo) SetStatus(ctx context.Context, tx pgx.Tx, contentID int64, status string) error {
	if tx == nil {
		return fmt.Errorf("transaction is required")
	}
	if contentID <= 0 || strings.TrimSpace(status) == "" {
		return fmt.Errorf("invalid status payload")
	}

	tag, err := tx.Exec(ctx, `
UPDATE forum_content
SET status = $2, updated_at = NOW()
WHERE id = $1
`, contentID, strings.ToLower(strings.TrimSpace(status)))
	if err != nil {
		return fmt.Errorf("set content status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrContentNotFound
	}

	return nil
}

// RecordFlag bumps the denormalized flag summary on the content row. The
// event itself is appended by FlagRepo inside the same transaction.
func (r *ContentRepo) RecordFlag(ctx context.Context, tx pgx.Tx, contentID int64, reason string) error {
	if tx == nil {
		return fmt.Errorf("transaction is required")
	}
	if contentID <= 0 {
		return fmt.Errorf("invalid content id")
	}

	tag, err := tx.Exec(ctx, `
UPDATE forum_content
SET
	is_flagged = TRUE,
	flag_count = flag_count + 1,
	last_flag_reason = $2,
	updated_at = NOW()
WHERE id = $1
`, contentID, strings.TrimSpace(reason))
	if err != nil {
		return fmt.Errorf("record content flag: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrContentNotFound
	}

	return nil
}

// ClearFlagged resets the aggregate flag without touching the event history
// or the lifetime flag count.
func (r *ContentRepo) ClearFlagged(ctx context.Context, tx pgx.Tx, contentID int64) error {
	if tx == nil {
		return fmt.Errorf("transaction is required")
	}
	if contentID <= 0 {
		return fmt.Errorf("invalid content id")
	}

	tag, err := tx.Exec(ctx, `
UPDATE forum_content
SET is_flagged = FALSE, updated_at = NOW()
WHERE id = $1
`, contentID)
	if err != nil {
		return fmt.Errorf("clear content flag: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrContentNotFound
	}

	return nil
}

func (r *ContentRepo) MarkSensitive(ctx context.Context, tx pgx.Tx, contentID int64, sensitiveType string) error {
	if tx == nil {
		return fmt.Errorf("transaction is required")
	}
	if contentID <= 0 || strings.TrimSpace(sensitiveType) == "" {
		return fmt.Errorf("invalid sensitive payload")
	}

	tag, err := tx.Exec(ctx, `
UPDATE forum_content
SET
	has_sensitive_content = TRUE,
	sensitive_content_type = $2,
	updated_at = NOW()
WHERE id = $1
`, contentID, strings.ToLower(strings.TrimSpace(sensitiveType)))
	if err != nil {
		return fmt.Errorf("mark content sensitive: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrContentNotFound
	}

	return nil
}

func (r *ContentRepo) SetHidden(ctx context.Context, tx pgx.Tx, contentID int64) error {
	return r.setRemovalFlag(ctx, tx, contentID, "is_hidden")
}

func (r *ContentRepo) SetDeleted(ctx context.Context, tx pgx.Tx, contentID int64) error {
	return r.setRemovalFlag(ctx, tx, contentID, "is_deleted")
}

func (r *ContentRepo) setRemovalFlag(ctx context.Context, tx pgx.Tx, contentID int64, column string) error {
	if tx == nil {
		return fmt.Errorf("transaction is required")
	}
	if contentID <= 0 {
		return fmt.Errorf("invalid content id")
	}
	if column != "is_hidden" && column != "is_deleted" {
		return fmt.Errorf("invalid removal column")
	}

	tag, err := tx.Exec(ctx, `
UPDATE forum_content
SET `+column+` = TRUE, updated_at = NOW()
WHERE id = $1
`, contentID)
	if err != nil {
		return fmt.Errorf("set content removal flag: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrContentNotFound
	}

	return nil
}

func (r *ContentRepo) ListTopics(ctx context.Context, params ListTopicsParams) ([]ContentRecord, int, error) {
	if r.pool == nil {
		return nil, 0, fmt.Errorf("postgres pool is nil")
	}
	if params.Limit <= 0 {
		return nil, 0, fmt.Errorf("invalid list limit")
	}

	where := []string{"kind = 'topic'", "is_deleted = FALSE"}
	args := []any{}
	if params.CategoryID != nil {
		args = append(args, *params.CategoryID)
		where = append(where, fmt.Sprintf("category_id = $%d", len(args)))
	}
	if params.Status != nil {
		args = append(args, strings.ToLower(strings.TrimSpace(*params.Status)))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	condition := strings.Join(where, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, `
SELECT COUNT(*)
FROM forum_content
WHERE `+condition, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count topics: %w", err)
	}

	args = append(args, params.Limit, params.Offset)
	rows, err := r.pool.Query(ctx, `
SELECT `+contentColumns+`
FROM forum_content
WHERE `+condition+`
ORDER BY created_at DESC, id DESC
LIMIT $`+fmt.Sprint(len(args)-1)+` OFFSET $`+fmt.Sprint(len(args)), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list topics: %w", err)
	}
	defer rows.Close()

	items, err := collectContent(rows)
	if err != nil {
		return nil, 0, err
	}

	return items, total, nil
}

func (r *ContentRepo) ListFlagged(ctx context.Context) ([]ContentRecord, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	rows, err := r.pool.Query(ctx, `
SELECT `+contentColumns+`
FROM forum_content
WHERE is_flagged = TRUE AND is_deleted = FALSE
ORDER BY updated_at DESC, id DESC
`)
	if err != nil {
		return nil, fmt.Errorf("list flagged content: %w", err)
	}
	defer rows.Close()

	return collectContent(rows)
}

func (r *ContentRepo) CollectStats(ctx context.Context) (ContentStatsRecord, error) {
	if r.pool == nil {
		return ContentStatsRecord{}, fmt.Errorf("postgres pool is nil")
	}

	var stats ContentStatsRecord
	if err := r.pool.QueryRow(ctx, `
SELECT
	COUNT(*) FILTER (WHERE kind = 'topic'),
	COUNT(*) FILTER (WHERE kind = 'topic' AND is_flagged),
	COUNT(*) FILTER (WHERE kind = 'post' AND is_flagged),
	COUNT(*) FILTER (WHERE has_sensitive_content)
FROM forum_content
WHERE is_deleted = FALSE
`).Scan(&stats.TotalTopics, &stats.FlaggedTopics, &stats.FlaggedPosts, &stats.SensitiveCount); err != nil {
		return ContentStatsRecord{}, fmt.Errorf("collect content stats: %w", err)
	}

	return stats, nil
}

func scanContent(row pgx.Row) (ContentRecord, error) {
	var item ContentRecord
	err := row.Scan(
		&item.ID,
		&item.Kind,
		&item.TopicID,
		&item.CategoryID,
		&item.AuthorID,
		&item.Title,
		&item.Status,
		&item.IsFlagged,
		&item.HasSensitiveContent,
		&item.SensitiveContentType,
		&item.FlagCount,
		&item.LastFlagReason,
		&item.IsHidden,
		&item.IsDeleted,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ContentRecord{}, ErrContentNotFound
		}
		return ContentRecord{}, fmt.Errorf("scan content item: %w", err)
	}
	return item, nil
}

func collectContent(rows pgx.Rows) ([]ContentRecord, error) {
	items := make([]ContentRecord, 0)
	for rows.Next() {
		item, err := scanContent(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate content rows: %w", err)
	}
	return items, nil
}
