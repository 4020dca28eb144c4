package rate

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

const flagsMinuteWindow = time.Minute

type WindowStore interface {
	IncrementWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
	WindowState(ctx context.Context, key string) (int64, time.Duration, error)
}

// Limiter throttles flag submissions per reporter. Flagging is the only
// end-user write in this service and the only abuse vector worth a window.
type Limiter struct {
	store     WindowStore
	perMinute int
}

func NewLimiter(store WindowStore, perMinute int) *Limiter {
	if perMinute < 0 {
		perMinute = 0
	}

	return &Limiter{
		store:     store,
		perMinute: perMinute,
	}
}

func (l *Limiter) AllowFlag(ctx context.Context, reporterID int64) (int64, bool, error) {
	if reporterID <= 0 {
		return 0, false, fmt.Errorf("invalid reporter id")
	}
	if l.store == nil {
		return 0, false, fmt.Errorf("rate limiter store is nil")
	}
	if l.perMinute == 0 {
		return 0, true, nil
	}

	count, ttl, err := l.store.IncrementWindow(ctx, flagMinuteKey(reporterID), flagsMinuteWindow)
	if err != nil {
		return 0, false, err
	}
	if count > int64(l.perMinute) {
		return ceilSeconds(ttl), false, nil
	}

	return 0, true, nil
}

func (l *Limiter) RetryAfterFlag(ctx context.Context, reporterID int64) (int64, error) {
	if reporterID <= 0 {
		return 0, fmt.Errorf("invalid reporter id")
	}
	if l.store == nil {
		return 0, fmt.Errorf("rate limiter store is nil")
	}
	if l.perMinute == 0 {
		return 0, nil
	}

	count, ttl, err := l.store.WindowState(ctx, flagMinuteKey(reporterID))
	if err != nil {
		return 0, err
	}
	if count >= int64(l.perMinute) {
		return ceilSeconds(ttl), nil
	}

	return 0, nil
}

func flagMinuteKey(reporterID int64) string {
	return "rate:flags:min:" + strconv.FormatInt(reporterID, 10)
}

func ceilSeconds(d time.Duration) int64 {
	if d <= 0 {
		return 0
	}
	sec := int64(d / time.Second)
	if d%time.Second != 0 {
		sec++
	}
	if sec <= 0 {
		sec = 1
	}
	return sec
}
