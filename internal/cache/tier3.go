package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// tier3 is the optional distributed tier backed by Redis. It exists only
// when a DistributedCacheURL is configured; an Orchestrator running without
// one skips Tier 3 entirely and the cache degrades to Tier1+Tier2.
type tier3 struct {
	client *redis.Client
	ttl    time.Duration
}

func newTier3(ctx context.Context, url string, ttl time.Duration) (*tier3, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	if ttl <= 0 {
		ttl = time.Hour
	}

	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	return &tier3{client: client, ttl: ttl}, nil
}

func (t *tier3) get(ctx context.Context, key string) ([]byte, bool) {
	payload, err := t.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	return payload, true
}

func (t *tier3) put(ctx context.Context, key string, payload []byte) error {
	return t.client.Set(ctx, key, payload, t.ttl).Err()
}

func (t *tier3) close() error {
	return t.client.Close()
}
