// Package cache decorates source clients with a short-lived Redis cache, so
// sweep runs and interactive reads within the TTL share one upstream call
// per asset. Cache failures degrade to a direct fetch, never to an error.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"fleetworks/internal/reconcile/metrics"
	"fleetworks/internal/reconcile/source"
	"fleetworks/pkg/domain"
)

type Cache struct {
	rdb     *redis.Client
	ttl     time.Duration
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func New(rdb *redis.Client, ttl time.Duration, logger *slog.Logger, m *metrics.Metrics) (*Cache, error) {
	if rdb == nil {
		return nil, errors.New("redis client is required")
	}
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{rdb: rdb, ttl: ttl, logger: logger, metrics: m}, nil
}

// TestHistory wraps a test-history client with caching.
func (c *Cache) TestHistory(inner source.TestHistoryClient) source.TestHistoryClient {
	return &cachedTestHistory{cache: c, inner: inner}
}

// Registration wraps a registration client with caching.
func (c *Cache) Registration(inner source.RegistrationClient) source.RegistrationClient {
	return &cachedRegistration{cache: c, inner: inner}
}

type cachedTestHistory struct {
	cache *Cache
	inner source.TestHistoryClient
}

func (t *cachedTestHistory) Lookup(ctx context.Context, vrm domain.VRM) (*source.VehicleHistory, error) {
	key := "reconcile:history:" + string(vrm)
	var out source.VehicleHistory
	if t.cache.get(ctx, string(source.NameTestHistory), key, &out) {
		return &out, nil
	}
	fetched, err := t.inner.Lookup(ctx, vrm)
	if err != nil {
		return nil, err
	}
	if fetched != nil {
		t.cache.set(ctx, key, fetched)
	}
	return fetched, nil
}

type cachedRegistration struct {
	cache *Cache
	inner source.RegistrationClient
}

func (r *cachedRegistration) Lookup(ctx context.Context, vrm domain.VRM) (*source.RegistrationRecord, error) {
	key := "reconcile:registration:" + string(vrm)
	var out source.RegistrationRecord
	if r.cache.get(ctx, string(source.NameRegistration), key, &out) {
		return &out, nil
	}
	fetched, err := r.inner.Lookup(ctx, vrm)
	if err != nil {
		return nil, err
	}
	if fetched != nil {
		r.cache.set(ctx, key, fetched)
	}
	return fetched, nil
}

func (c *Cache) get(ctx context.Context, src, key string, dest any) bool {
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		c.metrics.ObserveCache(src, "miss")
		return false
	}
	if err != nil {
		c.logger.WarnContext(ctx, "lookup cache read failed", "key", key, "error", err)
		c.metrics.ObserveCache(src, "error")
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		c.logger.WarnContext(ctx, "lookup cache entry undecodable", "key", key, "error", err)
		c.metrics.ObserveCache(src, "error")
		return false
	}
	c.metrics.ObserveCache(src, "hit")
	return true
}

func (c *Cache) set(ctx context.Context, key string, value any) {
	raw, err := json.Marshal(value)
	if err != nil {
		c.logger.WarnContext(ctx, "lookup cache encode failed", "key", key, "error", err)
		return
	}
	if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "lookup cache write failed", "key", key, "error", err)
	}
}
