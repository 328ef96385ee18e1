package utils

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// JSONCache keeps rendered JSON payloads in Redis under one key namespace.
// Without a Redis client every call is a miss and writes are dropped.
type JSONCache struct {
	namespace string
	ttl       time.Duration
	client    func() *redis.Client
}

// NewJSONCache caches under namespace using the shared client.
func NewJSONCache(namespace string, ttl time.Duration) *JSONCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &JSONCache{namespace: namespace, ttl: ttl, client: GetRedis}
}

func (c *JSONCache) key(k string) string { return c.namespace + k }

// Get returns the cached bytes for k.
func (c *JSONCache) Get(ctx context.Context, k string) ([]byte, bool) {
	rc := c.client()
	if rc == nil {
		return nil, false
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	b, err := rc.Get(ctx, c.key(k)).Bytes()
	if err != nil {
		if err != redis.Nil {
			Sugar.Debugw("cache read failed", "key", c.key(k), "err", err)
		}
		return nil, false
	}
	return b, true
}

// Put marshals v and stores it for the cache TTL.
func (c *JSONCache) Put(ctx context.Context, k string, v interface{}) {
	rc := c.client()
	if rc == nil {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := rc.Set(ctx, c.key(k), b, c.ttl).Err(); err != nil {
		Sugar.Warnw("cache write failed", "key", c.key(k), "err", err)
	}
}

// Purge drops every key in the namespace. SCAN rounds are bounded.
func (c *JSONCache) Purge(ctx context.Context) {
	rc := c.client()
	if rc == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	var cursor uint64
	for round := 0; round < 10; round++ {
		keys, next, err := rc.Scan(ctx, cursor, c.namespace+"*", 1000).Result()
		if err != nil {
			Sugar.Warnw("cache purge failed", "namespace", c.namespace, "err", err)
			return
		}
		if len(keys) > 0 {
			_ = rc.Del(ctx, keys...).Err()
		}
		if cursor = next; cursor == 0 {
			return
		}
	}
}
