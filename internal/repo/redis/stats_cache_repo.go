package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const statsKey = "moderation:stats"

var ErrCacheMiss = errors.New("stats cache miss")

// StatsCacheRepo keeps the admin dashboard aggregate as a JSON blob with a
// short TTL, so repeated dashboard loads do not hit postgres.
type StatsCacheRepo struct {
	client *goredis.Client
}

func NewStatsCacheRepo(client *goredis.Client) *StatsCacheRepo {
	return &StatsCacheRepo{client: client}
}

func (r *StatsCacheRepo) Get(ctx context.Context) ([]byte, error) {
	if r.client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}

	data, err := r.client.Get(ctx, statsKey).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("get stats cache: %w", err)
	}

	return data, nil
}

func (r *StatsCacheRepo) Set(ctx context.Context, payload []byte, ttl time.Duration) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if len(payload) == 0 || ttl <= 0 {
		return fmt.Errorf("invalid stats cache payload")
	}

	if err := r.client.Set(ctx, statsKey, payload, ttl).Err(); err != nil {
		return fmt.Errorf("set stats cache: %w", err)
	}

	return nil
}

func (r *StatsCacheRepo) Invalidate(ctx context.Context) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}

	if err := r.client.Del(ctx, statsKey).Err(); err != nil {
		return fmt.Errorf("invalidate stats cache: %w", err)
	}

	return nil
}
