package utils

import (
	"context"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// RateLimiter gates requests per caller key. Implementations are injected
// into handlers rather than held as process globals so tests can swap them.
type RateLimiter interface {
	Allow(key string) bool
}

// MemoryRateLimiter is a sliding-window limiter backed by an in-process map.
// Good enough for a single instance; use RedisRateLimiter behind a load
// balancer.
type MemoryRateLimiter struct {
	mu       sync.Mutex
	window   time.Duration
	limit    int
	requests map[string][]time.Time
	now      func() time.Time
}

func NewMemoryRateLimiter(limit int, window time.Duration) *MemoryRateLimiter {
	return &MemoryRateLimiter{
		window:   window,
		limit:    limit,
		requests: make(map[string][]time.Time),
		now:      time.Now,
	}
}

func (rl *MemoryRateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	cutoff := now.Add(-rl.window)

	kept := rl.requests[key][:0]
	for _, t := range rl.requests[key] {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}

	if len(kept) >= rl.limit {
		rl.requests[key] = kept
		return false
	}

	rl.requests[key] = append(kept, now)
	return true
}

// RedisRateLimiter counts requests in a fixed window shared across instances.
type RedisRateLimiter struct {
	client *redis.Client
	window time.Duration
	limit  int
	prefix string
}

func NewRedisRateLimiter(client *redis.Client, limit int, window time.Duration, prefix string) *RedisRateLimiter {
	return &RedisRateLimiter{client: client, window: window, limit: limit, prefix: prefix}
}

func (rl *RedisRateLimiter) Allow(key string) bool {
	ctx := context.Background()
	redisKey := rl.prefix + ":" + key

	count, err := rl.client.Incr(ctx, redisKey).Result()
	if err != nil {
		// fail open on Redis errors
		return true
	}
	if count == 1 {
		rl.client.Expire(ctx, redisKey, rl.window)
	}
	return count <= int64(rl.limit)
}
