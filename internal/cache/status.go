// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"gitforum/internal/buildstatus"
)

const (
	// DefaultStatusTTL is how long a build status stays cached.
	DefaultStatusTTL = 15 * time.Second

	statusPrefix = "build:"
)

// CommitKey returns the cache key for the newest run of a commit.
func CommitKey(sha string) string { return "commit:" + sha }

// RunKey returns the cache key for a run id.
func RunKey(runID int64) string { return "run:" + strconv.FormatInt(runID, 10) }

// StatusCache stores build statuses in Valkey. Every operation is best
// effort: failures are logged and reported as misses.
type StatusCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStatusCache creates a status cache. A ttl of zero uses DefaultStatusTTL.
func NewStatusCache(client *redis.Client, ttl time.Duration) *StatusCache {
	if ttl <= 0 {
		ttl = DefaultStatusTTL
	}
	return &StatusCache{client: client, ttl: ttl}
}

// Get returns a cached status. The second return value is false on miss.
func (c *StatusCache) Get(ctx context.Context, key string) (buildstatus.Status, bool) {
	data, err := c.client.Get(ctx, statusPrefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Warn("status cache get failed", "key", key, "error", err)
		}
		return buildstatus.Status{}, false
	}

	var s buildstatus.Status
	if err := json.Unmarshal(data, &s); err != nil {
		slog.Warn("status cache entry corrupt", "key", key, "error", err)
		return buildstatus.Status{}, false
	}
	slog.Debug("status cache hit", "key", key)
	return s, true
}

// Set stores a status with the configured TTL.
func (c *StatusCache) Set(ctx context.Context, key string, s buildstatus.Status) {
	data, err := json.Marshal(s)
	if err != nil {
		slog.Warn("status cache encode failed", "key", key, "error", err)
		return
	}
	if err := c.client.Set(ctx, statusPrefix+key, data, c.ttl).Err(); err != nil {
		slog.Warn("status cache set failed", "key", key, "error", err)
	}
}

// Invalidate removes a cached status.
func (c *StatusCache) Invalidate(ctx context.Context, key string) {
	if err := c.client.Del(ctx, statusPrefix+key).Err(); err != nil {
		slog.Warn("status cache invalidate failed", "key", key, "error", err)
	}
}

// CachedChecker puts a StatusCache in front of a buildstatus.Checker.
// Lookups that found no run are not cached, so a build that starts right
// after a commit shows up on the next poll.
type CachedChecker struct {
	next  buildstatus.Checker
	cache *StatusCache
}

// NewCachedChecker wraps next with cache.
func NewCachedChecker(next buildstatus.Checker, cache *StatusCache) *CachedChecker {
	return &CachedChecker{next: next, cache: cache}
}

// ForCommit implements buildstatus.Checker.
func (c *CachedChecker) ForCommit(ctx context.Context, sha string) (buildstatus.Status, error) {
	return c.lookup(ctx, CommitKey(sha), func() (buildstatus.Status, error) {
		return c.next.ForCommit(ctx, sha)
	})
}

// ForRun implements buildstatus.Checker.
func (c *CachedChecker) ForRun(ctx context.Context, runID int64) (buildstatus.Status, error) {
	return c.lookup(ctx, RunKey(runID), func() (buildstatus.Status, error) {
		return c.next.ForRun(ctx, runID)
	})
}

func (c *CachedChecker) lookup(ctx context.Context, key string, fetch func() (buildstatus.Status, error)) (buildstatus.Status, error) {
	if s, ok := c.cache.Get(ctx, key); ok {
		return s, nil
	}
	s, err := fetch()
	if err != nil {
		return s, err
	}
	if s.Found {
		c.cache.Set(ctx, key, s)
	}
	return s, nil
}
