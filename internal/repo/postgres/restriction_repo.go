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

var (
	ErrRestrictionNotFound = errors.New("restriction not found")
	ErrRestrictionInactive = errors.New("restriction is not currently active")
)

type RestrictionRepo struct {
	pool *pgxpool.Pool
}

type RestrictionRecord struct {
	ID              int64
	UserID          int64
	RestrictionType string
	Reason          string
	StartAt         time.Time
	EndAt           time.Time
	IsActive        bool
	LiftedAt        *time.Time
	LiftedBy        *int64
	LiftReason      *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

const restrictionColumns = `
id, user_id, restriction_type, reason, start_at, end_at,
is_active, lifted_at, lifted_by, lift_reason, created_at, updated_at`

func NewRestrictionRepo(pool *pgxpool.Pool) *RestrictionRepo {
	return &RestrictionRepo{pool: pool}
}

func (r *RestrictionRepo) Create(ctx context.Context, userID int64, restrictionType, reason string, startAt, endAt time.Time) (RestrictionRecord, error) {
	if r.pool == nil {
		return RestrictionRecord{}, fmt.Errorf("postgres pool is nil")
	}
	if userID <= 0 || strings.TrimSpace(restrictionType) == "" || strings.TrimSpace(reason) == "" {
		return RestrictionRecord{}, fmt.Errorf("invalid restriction payload")
	}
	if !endAt.After(startAt) {
		return RestrictionRecord{}, fmt.Errorf("restriction end must be after start")
	}

	row := r.pool.QueryRow(ctx, `
INSERT INTO user_restrictions (
	user_id,
	restriction_type,
	reason,
	start_at,
	end_at,
	is_active,
	created_at,
	updated_at
) VALUES ($1, $2, $3, $4, $5, TRUE, NOW(), NOW())
RETURNING `+restrictionColumns, userID, strings.ToLower(strings.TrimSpace(restrictionType)), strings.TrimSpace(reason), startAt, endAt)

	return scanRestriction(row)
}

func (r *RestrictionRepo) GetByID(ctx context.Context, restrictionID int64) (RestrictionRecord, error) {
	if r.pool == nil {
		return RestrictionRecord{}, fmt.Errorf("postgres pool is nil")
	}
	if restrictionID <= 0 {
		return RestrictionRecord{}, fmt.Errorf("invalid restriction id")
	}

	row := r.pool.QueryRow(ctx, `
SELECT `+restrictionColumns+`
FROM user_restrictions
WHERE id = $1
LIMIT 1
`, restrictionID)

	return scanRestriction(row)
}

// Lift deactivates a restriction only while it is currently in force. The
// guard mirrors the in-memory predicate: is_active AND end_at in the future.
// A miss is disambiguated into not-found vs already-inactive by re-reading
// the row.
func (r *RestrictionRepo) Lift(ctx context.Context, restrictionID, liftedBy int64, liftReason string, now time.Time) (RestrictionRecord, error) {
	if r.pool == nil {
		return RestrictionRecord{}, fmt.Errorf("postgres pool is nil")
	}
	if restrictionID <= 0 {
		return RestrictionRecord{}, fmt.Errorf("invalid restriction id")
	}

	row := r.pool.QueryRow(ctx, `
UPDATE user_restrictions
SET
	is_active = FALSE,
	lifted_at = $4,
	lifted_by = $2,
	lift_reason = NULLIF($3, ''),
	updated_at = NOW()
WHERE id = $1
  AND is_active = TRUE
  AND end_at > $4
RETURNING `+restrictionColumns, restrictionID, liftedBy, strings.TrimSpace(liftReason), now)

	record, err := scanRestriction(row)
	if err == nil {
		return record, nil
	}
	if !errors.Is(err, ErrRestrictionNotFound) {
		return RestrictionRecord{}, err
	}

	if _, getErr := r.GetByID(ctx, restrictionID); getErr != nil {
		return RestrictionRecord{}, getErr
	}
	return RestrictionRecord{}, ErrRestrictionInactive
}

func (r *RestrictionRepo) List(ctx context.Context, offset, limit int, activeOnly bool, now time.Time) ([]RestrictionRecord, int, error) {
	if r.pool == nil {
		return nil, 0, fmt.Errorf("postgres pool is nil")
	}
	if limit <= 0 {
		return nil, 0, fmt.Errorf("invalid list limit")
	}

	condition := "TRUE"
	if activeOnly {
		condition = "is_active = TRUE AND end_at > $3"
	}

	countArgs := []any{}
	listArgs := []any{limit, offset}
	if activeOnly {
		countArgs = append(countArgs, now)
		listArgs = append(listArgs, now)
	}

	countCondition := condition
	if activeOnly {
		countCondition = "is_active = TRUE AND end_at > $1"
	}

	var total int
	if err := r.pool.QueryRow(ctx, `
SELECT COUNT(*)
FROM user_restrictions
WHERE `+countCondition, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count restrictions: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
SELECT `+restrictionColumns+`
FROM user_restrictions
WHERE `+condition+`
ORDER BY created_at DESC, id DESC
LIMIT $1 OFFSET $2
`, listArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("list restrictions: %w", err)
	}
	defer rows.Close()

	records, err := collectRestrictions(rows)
	if err != nil {
		return nil, 0, err
	}

	return records, total, nil
}

func (r *RestrictionRepo) ListByUser(ctx context.Context, userID int64) ([]RestrictionRecord, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}
	if userID <= 0 {
		return nil, fmt.Errorf("invalid user id")
	}

	rows, err := r.pool.Query(ctx, `
SELECT `+restrictionColumns+`
FROM user_restrictions
WHERE user_id = $1
ORDER BY created_at DESC, id DESC
`, userID)
	if err != nil {
		return nil, fmt.Errorf("list user restrictions: %w", err)
	}
	defer rows.Close()

	return collectRestrictions(rows)
}

func (r *RestrictionRepo) CountActive(ctx context.Context, now time.Time) (int, error) {
	if r.pool == nil {
		return 0, fmt.Errorf("postgres pool is nil")
	}

	var count int
	if err := r.pool.QueryRow(ctx, `
SELECT COUNT(*)
FROM user_restrictions
WHERE is_active = TRUE AND end_at > $1
`, now).Scan(&count); err != nil {
		return 0, fmt.Errorf("count active restrictions: %w", err)
	}

	return count, nil
}

func scanRestriction(row pgx.Row) (RestrictionRecord, error) {
	var record RestrictionRecord
	err := row.Scan(
		&record.ID,
		&record.UserID,
		&record.RestrictionType,
		&record.Reason,
		&record.StartAt,
		&record.EndAt,
		&record.IsActive,
		&record.LiftedAt,
		&record.LiftedBy,
		&record.LiftReason,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return RestrictionRecord{}, ErrRestrictionNotFound
		}
		return RestrictionRecord{}, fmt.Errorf("scan restriction: %w", err)
	}
	return record, nil
}

func collectRestrictions(rows pgx.Rows) ([]RestrictionRecord, error) {
	records := make([]RestrictionRecord, 0)
	for rows.Next() {
		record, err := scanRestriction(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate restriction rows: %w", err)
	}
	return records, nil
}
