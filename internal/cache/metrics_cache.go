package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/civicdesk/grievance-portal/internal/domain"
)

const defaultMetricsTTL = time.Minute

// Lookup is the outcome of a cache read. Generation is the version the read
// observed; metrics computed after a miss must be stored under it so an
// invalidation that lands in between is not masked.
type Lookup struct {
	Metrics    *domain.DashboardMetrics
	Hit        bool
	Generation int64
}

// MetricsCache stores computed dashboards keyed by their filter.
type MetricsCache interface {
	Get(ctx context.Context, key string) (Lookup, error)
	Set(ctx context.Context, key string, generation int64, metrics *domain.DashboardMetrics) error
	Invalidate(ctx context.Context) error
}

// RedisMetricsCache namespaces entries under a version counter so a single
// INCR invalidates every cached dashboard; stale generations age out by TTL.
type RedisMetricsCache struct {
	client   *redis.Client
	keyspace string
	ttl      time.Duration
}

// NewRedisMetricsCache builds the cache on an existing client.
func NewRedisMetricsCache(client *redis.Client, keyspace string, ttl time.Duration) *RedisMetricsCache {
	if keyspace == "" {
		keyspace = "grievance:dashboard"
	}
	if ttl <= 0 {
		ttl = defaultMetricsTTL
	}
	return &RedisMetricsCache{client: client, keyspace: keyspace, ttl: ttl}
}

func (c *RedisMetricsCache) Get(ctx context.Context, key string) (Lookup, error) {
	generation, err := c.generation(ctx)
	if err != nil {
		return Lookup{}, err
	}
	lookup := Lookup{Generation: generation}
	raw, err := c.client.Get(ctx, c.entryKey(generation, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return lookup, nil
	}
	if err != nil {
		return lookup, fmt.Errorf("get dashboard cache: %w", err)
	}
	var metrics domain.DashboardMetrics
	if err := json.Unmarshal(raw, &metrics); err != nil {
		return lookup, fmt.Errorf("decode dashboard cache: %w", err)
	}
	lookup.Metrics, lookup.Hit = &metrics, true
	return lookup, nil
}

// Set stores metrics under generation. Writes for a superseded generation are
// never read again and expire with the TTL.
func (c *RedisMetricsCache) Set(ctx context.Context, key string, generation int64, metrics *domain.DashboardMetrics) error {
	entry := c.entryKey(generation, key)
	raw, err := json.Marshal(metrics)
	if err != nil {
		return fmt.Errorf("encode dashboard cache: %w", err)
	}
	if err := c.client.Set(ctx, entry, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("set dashboard cache: %w", err)
	}
	return nil
}

func (c *RedisMetricsCache) Invalidate(ctx context.Context) error {
	if err := c.client.Incr(ctx, c.versionKey()).Err(); err != nil {
		return fmt.Errorf("invalidate dashboard cache: %w", err)
	}
	return nil
}

func (c *RedisMetricsCache) versionKey() string {
	return c.keyspace + ":version"
}

func (c *RedisMetricsCache) generation(ctx context.Context) (int64, error) {
	version, err := c.client.Get(ctx, c.versionKey()).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read dashboard cache version: %w", err)
	}
	return version, nil
}

func (c *RedisMetricsCache) entryKey(generation int64, key string) string {
	return fmt.Sprintf("%s:v%d:%s", c.keyspace, generation, key)
}

var _ MetricsCache = (*RedisMetricsCache)(nil)
