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

var ErrAdminUserNotFound = errors.New("admin user not found")

type AdminUserRepo struct {
	pool *pgxpool.Pool
}

type AdminUserRecord struct {
	ID           int64
	Username     string
	PasswordHash string
	Role         string
	IsActive     bool
	CreatedAt    time.Time
}

func NewAdminUserRepo(pool *pgxpool.Pool) *AdminUserRepo {
	return &AdminUserRepo{pool: pool}
}

func (r *AdminUserRepo) GetByUsername(ctx context.Context, username string) (AdminUserRecord, error) {
	if r.pool == nil {
		return AdminUserRecord{}, fmt.Errorf("postgres pool is nil")
	}
	if strings.TrimSpace(username) == "" {
		return AdminUserRecord{}, fmt.Errorf("username is required")
	}

	var record AdminUserRecord
	err := r.pool.QueryRow(ctx, `
SELECT id, username, password_hash, role, is_active, created_at
FROM admin_users
WHERE LOWER(username) = LOWER($1) AND is_active = TRUE
LIMIT 1
`, strings.TrimSpace(username)).Scan(
		&record.ID,
		&record.Username,
		&record.PasswordHash,
		&record.Role,
		&record.IsActive,
		&record.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return AdminUserRecord{}, ErrAdminUserNotFound
		}
		return AdminUserRecord{}, fmt.Errorf("query admin user: %w", err)
	}

	return record, nil
}
