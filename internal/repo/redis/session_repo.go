package redis

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	authsvc "github.com/amatsuk/civicforum/backend/internal/services/auth"
)

const sessionPrefix = "admin_sessions:"

type SessionRepo struct {
	client *goredis.Client
}

func NewSessionRepo(client *goredis.Client) *SessionRepo {
	return &SessionRepo{client: client}
}

func (r *SessionRepo) Create(ctx context.Context, session authsvc.SessionRecord, ttl time.Duration) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if strings.TrimSpace(session.SID) == "" || session.UserID <= 0 || ttl <= 0 {
		return authsvc.ErrInvalidInput
	}

	key := sessionKey(session.SID)
	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, key, map[string]interface{}{
		"user_id": session.UserID,
		"role":    session.Role,
	})
	pipe.Expire(ctx, key, ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("create admin session: %w", err)
	}

	return nil
}

// Touch validates the session belongs to the user and slides its idle
// expiry, returning the stored role.
func (r *SessionRepo) Touch(ctx context.Context, sid string, userID int64, idleTimeout time.Duration) (string, error) {
	if r.client == nil {
		return "", fmt.Errorf("redis client is nil")
	}
	if strings.TrimSpace(sid) == "" || userID <= 0 {
		return "", authsvc.ErrInvalidInput
	}

	key := sessionKey(sid)
	values, err := r.client.HGetAll(ctx, key).Result()
	if err != nil {
		return "", fmt.Errorf("get admin session: %w", err)
	}
	if len(values) == 0 {
		return "", authsvc.ErrSessionNotFound
	}

	storedUserID, err := strconv.ParseInt(values["user_id"], 10, 64)
	if err != nil || storedUserID != userID {
		return "", authsvc.ErrSessionNotFound
	}

	if idleTimeout > 0 {
		if err := r.client.Expire(ctx, key, idleTimeout).Err(); err != nil {
			return "", fmt.Errorf("touch admin session ttl: %w", err)
		}
	}

	return values["role"], nil
}

func (r *SessionRepo) Delete(ctx context.Context, sid string) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if strings.TrimSpace(sid) == "" {
		return authsvc.ErrInvalidInput
	}

	if err := r.client.Del(ctx, sessionKey(sid)).Err(); err != nil {
		return fmt.Errorf("delete admin session: %w", err)
	}

	return nil
}

func sessionKey(sid string) string {
	return sessionPrefix + sid
}
