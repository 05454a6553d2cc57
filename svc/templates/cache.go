package templates

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ContentCache is the shared cache layer for compiled output, keyed by
// snapshot ID. Content is immutable so a hit never needs revalidation; a
// miss falls through to recompilation.
type ContentCache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// DefaultContentTTL bounds how long compiled output lives in the shared
// cache. Expiry is a cost control, not an invalidation mechanism.
const DefaultContentTTL = 7 * 24 * time.Hour

// RedisContentCache stores compiled output in Redis so all instances share
// one compile cache.
type RedisContentCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewRedisContentCache(client redis.UniversalClient, ttl time.Duration) *RedisContentCache {
	if ttl <= 0 {
		ttl = DefaultContentTTL
	}
	return &RedisContentCache{client: client, ttl: ttl}
}

func (c *RedisContentCache) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, err
	}
	return val, true, nil
}

func (c *RedisContentCache) Set(ctx context.Context, key, value string) error {
	return c.client.Set(ctx, key, value, c.ttl).Err()
}
