package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/passbi/trackmaster/internal/metrics"
	"github.com/passbi/trackmaster/internal/models"
	"github.com/redis/go-redis/v9"
)

// ErrLockTimeout is returned when another process held a route lock past the wait
var ErrLockTimeout = errors.New("timeout waiting for lock")

// RouteCache stores computed paths in a process-local LRU in front of Redis.
// With a nil Redis client only the local tier is used and locks always succeed.
type RouteCache struct {
	rdb      *redis.Client
	local    *expirable.LRU[string, *models.Path]
	ttl      time.Duration
	mutexTTL time.Duration
}

// New creates a route cache. localSize bounds the in-process tier.
func New(rdb *redis.Client, config *Config) *RouteCache {
	size := config.LocalSize
	if size <= 0 {
		size = 1
	}

	return &RouteCache{
		rdb:      rdb,
		local:    expirable.NewLRU[string, *models.Path](size, nil, config.TTL),
		ttl:      config.TTL,
		mutexTTL: config.MutexTTL,
	}
}

// Get retrieves a cached route. A miss returns (nil, nil).
// Paths are shared between callers and must not be modified.
func (c *RouteCache) Get(ctx context.Context, key string) (*models.Path, error) {
	if path, ok := c.local.Get(key); ok {
		metrics.CacheHit("local")
		return path, nil
	}
	metrics.CacheMiss("local")

	if c.rdb == nil {
		return nil, nil
	}

	data, err := c.rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		metrics.CacheMiss("redis")
		return nil, nil // cache miss
	}
	if err != nil {
		return nil, err
	}

	var path models.Path
	if err := json.Unmarshal(data, &path); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached path: %w", err)
	}
	metrics.CacheHit("redis")

	c.local.Add(key, &path)
	return &path, nil
}

// Set caches a route in both tiers
func (c *RouteCache) Set(ctx context.Context, key string, path *models.Path) error {
	c.local.Add(key, path)

	if c.rdb == nil {
		return nil
	}

	data, err := json.Marshal(path)
	if err != nil {
		return fmt.Errorf("failed to marshal path: %w", err)
	}

	return c.rdb.Set(ctx, key, data, c.ttl).Err()
}

// Purge drops every locally cached route. Redis entries expire on their own.
func (c *RouteCache) Purge() {
	c.local.Purge()
}

// Len returns the number of locally cached routes
func (c *RouteCache) Len() int {
	return c.local.Len()
}

// AcquireLock attempts to acquire the distributed lock for a route key.
// Returns true if the lock was acquired, false if already locked.
func (c *RouteCache) AcquireLock(ctx context.Context, routeKey string) (bool, error) {
	if c.rdb == nil {
		return true, nil
	}

	ok, err := c.rdb.SetNX(ctx, LockKey(routeKey), "1", c.mutexTTL).Result()
	if err != nil {
		return false, err
	}

	return ok, nil
}

// ReleaseLock releases the distributed lock for a route key
func (c *RouteCache) ReleaseLock(ctx context.Context, routeKey string) error {
	if c.rdb == nil {
		return nil
	}

	return c.rdb.Del(ctx, LockKey(routeKey)).Err()
}

// WaitForLock waits for another process to release the lock on a route key
// and then returns whatever it cached
func (c *RouteCache) WaitForLock(ctx context.Context, routeKey string, maxWait time.Duration) (*models.Path, error) {
	if c.rdb == nil {
		return c.Get(ctx, routeKey)
	}

	lockKey := LockKey(routeKey)
	deadline := time.Now().Add(maxWait)

	for time.Now().Before(deadline) {
		exists, err := c.rdb.Exists(ctx, lockKey).Result()
		if err != nil {
			return nil, err
		}

		if exists == 0 {
			return c.Get(ctx, routeKey)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(100 * time.Millisecond):
		}
	}

	return nil, ErrLockTimeout
}
