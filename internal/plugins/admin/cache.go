package admin

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// statsCacheKey is the Redis key for the cached dashboard summary.
const statsCacheKey = "clubgate:admin:stats"

// StatsCache holds the last computed Stats for a short time so a dashboard
// polling every few seconds doesn't rerun the count queries.
type StatsCache interface {
	Get(ctx context.Context) (*Stats, bool)
	Set(ctx context.Context, stats *Stats)
}

// NewStatsCache returns a Redis-backed cache, or a no-op cache when client is
// nil (Redis not configured).
func NewStatsCache(client *redis.Client, ttl time.Duration) StatsCache {
	if client == nil {
		return noCache{}
	}
	return &redisStatsCache{client: client, ttl: ttl}
}

type redisStatsCache struct {
	client *redis.Client
	ttl    time.Duration
}

// Get treats every failure as a miss. The cache is an optimization only.
func (c *redisStatsCache) Get(ctx context.Context) (*Stats, bool) {
	data, err := c.client.Get(ctx, statsCacheKey).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Warn("stats cache read failed", slog.Any("error", err))
		}
		return nil, false
	}

	var stats Stats
	if err := json.Unmarshal(data, &stats); err != nil {
		slog.Warn("stats cache entry corrupt", slog.Any("error", err))
		return nil, false
	}
	return &stats, true
}

func (c *redisStatsCache) Set(ctx context.Context, stats *Stats) {
	data, err := json.Marshal(stats)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, statsCacheKey, data, c.ttl).Err(); err != nil {
		slog.Warn("stats cache write failed", slog.Any("error", err))
	}
}

type noCache struct{}

func (noCache) Get(context.Context) (*Stats, bool) { return nil, false }
func (noCache) Set(context.Context, *Stats)        {}
