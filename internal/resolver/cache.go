package resolver

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// LinkCache stores resolved page links across requests
type LinkCache interface {
	Get(ctx context.Context, key PageKey) (string, bool)
	Set(ctx context.Context, key PageKey, link string)
}

// NopCache never hits
type NopCache struct{}

// Get always misses
func (NopCache) Get(context.Context, PageKey) (string, bool) { return "", false }

// Set discards the link
func (NopCache) Set(context.Context, PageKey, string) {}

// RedisCache keeps page links in Redis with a TTL. Redis errors degrade to
// cache misses.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
	logger *zap.Logger
}

// NewRedisCache creates a Redis backed link cache
func NewRedisCache(client *redis.Client, ttl time.Duration, prefix string, logger *zap.Logger) *RedisCache {
	if prefix == "" {
		prefix = "askcite"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisCache{client: client, ttl: ttl, prefix: prefix, logger: logger}
}

func (c *RedisCache) key(k PageKey) string {
	return fmt.Sprintf("%s:link:%s:%d", c.prefix, k.DocumentID, k.Page)
}

// Get returns the cached link for key
func (c *RedisCache) Get(ctx context.Context, key PageKey) (string, bool) {
	val, err := c.client.Get(ctx, c.key(key)).Result()
	if err == redis.Nil {
		return "", false
	}
	if err != nil {
		c.logger.Debug("Link cache get failed", zap.Error(err))
		return "", false
	}
	return val, val != ""
}

// Set stores link under key
func (c *RedisCache) Set(ctx context.Context, key PageKey, link string) {
	if err := c.client.Set(ctx, c.key(key), link, c.ttl).Err(); err != nil {
		c.logger.Debug("Link cache set failed", zap.Error(err))
	}
}

// Close releases the Redis client
func (c *RedisCache) Close() error {
	return c.client.Close()
}
