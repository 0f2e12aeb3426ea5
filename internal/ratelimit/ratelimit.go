// Package ratelimit implements fixed-window request counting.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter decides whether another request for key fits in the current window.
type Limiter interface {
	Allow(ctx context.Context, key string) (allowed bool, retryAfter time.Duration, err error)
}

// RedisLimiter counts requests in Redis so the limit holds across replicas.
type RedisLimiter struct {
	redis  *redis.Client
	limit  int
	window time.Duration
	now    func() time.Time
}

func NewRedisLimiter(rdb *redis.Client, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{redis: rdb, limit: limit, window: window, now: time.Now}
}

func (rl *RedisLimiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	start := windowStart(rl.now(), rl.window)
	windowKey := fmt.Sprintf("ratelimit:%s:%d", key, start.Unix())

	pipe := rl.redis.Pipeline()
	incr := pipe.Incr(ctx, windowKey)
	pipe.Expire(ctx, windowKey, rl.window)

	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, err
	}

	if int(incr.Val()) <= rl.limit {
		return true, 0, nil
	}
	return false, start.Add(rl.window).Sub(rl.now()), nil
}

// MemoryLimiter is the single-process fallback used when Redis is absent.
type MemoryLimiter struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	now     func() time.Time
	current time.Time
	counts  map[string]int
}

func NewMemoryLimiter(limit int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{limit: limit, window: window, now: time.Now, counts: make(map[string]int)}
}

func (ml *MemoryLimiter) Allow(_ context.Context, key string) (bool, time.Duration, error) {
	ml.mu.Lock()
	defer ml.mu.Unlock()

	now := ml.now()
	start := windowStart(now, ml.window)
	if !start.Equal(ml.current) {
		ml.current = start
		ml.counts = make(map[string]int)
	}

	ml.counts[key]++
	if ml.counts[key] <= ml.limit {
		return true, 0, nil
	}
	return false, start.Add(ml.window).Sub(now), nil
}

func windowStart(now time.Time, window time.Duration) time.Time {
	return now.Truncate(window)
}
