// Package cache is a three-tier read-through cache over analysis
// payloads. Tier 1 is an in-process LRU bounded by a
// byte budget (hashicorp/golang-lru/v2), Tier 2 is an on-disk SQLite store
// with TTL-based purge (modernc.org/sqlite), and Tier 3 is an optional
// shared Redis store (go-redis/redis/v8) for multi-process deployments.
//
// Reads check tiers in order and promote a hit back up to every faster tier
// it missed; writes go to every configured tier. cespare/xxhash/v2 is used
// only to pick a Tier-1 shard/bucket for logging/metrics, never as the
// cache key itself — the key is always the caller-supplied key string
// (see FileKey, CodebaseKey, SessionKey).
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"

	"go.uber.org/zap"
)

// FileKey builds the stable file-level cache key
// "analysis:{file_path}:{file_hash}". Keying on both path and content hash
// means an unchanged file reuses its cached analysis even if the codebase
// otherwise changed shape.
func FileKey(filePath, fileHash string) string {
	return fmt.Sprintf("analysis:%s:%s", filePath, fileHash)
}

// CodebaseKey builds the stable codebase-level cache key: "codebase:{id}".
func CodebaseKey(codebaseID string) string { return "codebase:" + codebaseID }

// SessionKey builds the stable session-state cache key: "session:{id}".
// Session state is written through the same Cache as any other key; the
// cache has no per-key TTL, so Tier 2 and Tier 3 expire session entries
// after the same configured TTL as analysis entries.
func SessionKey(codebaseID string) string { return "session:" + codebaseID }

// shardOf picks a log-friendly shard label for key using xxhash; purely
// observational, never used for correctness.
func shardOf(key string, shards uint64) uint64 {
	if shards == 0 {
		shards = 1
	}
	return xxhash.Sum64String(key) % shards
}

// Stats reports hit/miss/eviction counters for observability.
type Stats struct {
	Tier1Hits    int64
	Tier2Hits    int64
	Tier3Hits    int64
	Misses       int64
	Evictions    int64
	CurrentBytes int64
}

// Cache is the unified read-through cache.
type Cache struct {
	log   *zap.Logger
	tier1 *tier1
	tier2 *tier2
	tier3 *tier3 // nil when no distributed cache is configured

	stats Stats
}

// Options configures a Cache.
type Options struct {
	MaxBytes   int64
	SQLitePath string
	TTL        time.Duration
	RedisURL   string // empty disables Tier 3
}

// New builds a Cache from Options. SQLitePath may be ":memory:" for tests.
func New(ctx context.Context, log *zap.Logger, opts Options) (*Cache, error) {
	if log == nil {
		log = zap.NewNop()
	}

	t1, err := newTier1(opts.MaxBytes)
	if err != nil {
		return nil, fmt.Errorf("cache: init tier1: %w", err)
	}

	t2, err := newTier2(opts.SQLitePath, opts.TTL)
	if err != nil {
		return nil, fmt.Errorf("cache: init tier2: %w", err)
	}

	var t3 *tier3
	if opts.RedisURL != "" {
		t3, err = newTier3(ctx, opts.RedisURL, opts.TTL)
		if err != nil {
			return nil, fmt.Errorf("cache: init tier3: %w", err)
		}
	}

	return &Cache{log: log, tier1: t1, tier2: t2, tier3: t3}, nil
}

// Get looks up key, checking tiers fastest-first and promoting a hit back
// into every faster tier it missed.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool) {
	if payload, ok := c.tier1.get(key); ok {
		c.stats.Tier1Hits++
		return payload, true
	}

	if payload, ok := c.tier2.get(key); ok {
		c.stats.Tier2Hits++
		c.tier1.put(key, payload)
		return payload, true
	}

	if c.tier3 != nil {
		if payload, ok := c.tier3.get(ctx, key); ok {
			c.stats.Tier3Hits++
			c.tier1.put(key, payload)
			_ = c.tier2.put(key, payload)
			return payload, true
		}
	}

	c.stats.Misses++
	return nil, false
}

// Put writes payload to every configured tier. Tier 1 success is sufficient
// for correctness in-process, so a Tier 2/3 write failure is logged here
// and never returned to the caller.
func (c *Cache) Put(ctx context.Context, key string, payload []byte) error {
	shard := shardOf(key, 16)
	c.log.Debug("cache put", zap.String("key", key), zap.Uint64("tier1_shard", shard), zap.Int("bytes", len(payload)))

	evicted := c.tier1.put(key, payload)
	c.stats.Evictions += int64(evicted)
	c.stats.CurrentBytes = c.tier1.currentBytes()

	if err := c.tier2.put(key, payload); err != nil {
		c.log.Warn("cache tier2 put failed", zap.String("key", key), zap.Error(err))
	}

	if c.tier3 != nil {
		if err := c.tier3.put(ctx, key, payload); err != nil {
			c.log.Warn("cache tier3 put failed", zap.String("key", key), zap.Error(err))
		}
	}
	return nil
}

// PutJSON marshals v and writes it through Put.
func (c *Cache) PutJSON(ctx context.Context, key string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("cache: marshal %s: %w", key, err)
	}
	return c.Put(ctx, key, payload)
}

// GetJSON looks up key and unmarshals it into v.
func (c *Cache) GetJSON(ctx context.Context, key string, v any) (bool, error) {
	payload, ok := c.Get(ctx, key)
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return false, fmt.Errorf("cache: unmarshal %s: %w", key, err)
	}
	return true, nil
}

// Stats returns a snapshot of the cache's counters.
func (c *Cache) Stats() Stats {
	s := c.stats
	s.CurrentBytes = c.tier1.currentBytes()
	return s
}

// Close releases Tier 2/Tier 3 resources.
func (c *Cache) Close() error {
	var firstErr error
	if err := c.tier2.close(); err != nil {
		firstErr = err
	}
	if c.tier3 != nil {
		if err := c.tier3.close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
