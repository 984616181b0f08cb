package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/utafrali/PizzaGo/pkg/cache"
)

// Cache keys.
const (
	keyProducts   = "catalog:products"
	keyCategories = "catalog:categories"
	keyCategory   = "catalog:category:"
)

// DefaultCacheTTL is used when the configured TTL is not positive.
const DefaultCacheTTL = 5 * time.Minute

// Cache stores catalog responses. Get reports false on a miss.
type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, value any) error
}

// RedisCache implements Cache on Redis with JSON values.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache creates a Redis-backed catalog cache.
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &RedisCache{client: client, ttl: ttl}
}

// Get loads key into dst.
func (c *RedisCache) Get(ctx context.Context, key string, dst any) (found bool, err error) {
	ctx, end := cache.TraceCommand(ctx, "GET", key)
	defer func() { end(err) }()

	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get %s: %w", key, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("unmarshal %s: %w", key, err)
	}
	return true, nil
}

// Set stores value under key. The TTL is spread by up to a tenth so entries
// written together do not all expire at once.
func (c *RedisCache) Set(ctx context.Context, key string, value any) (err error) {
	ctx, end := cache.TraceCommand(ctx, "SET", key)
	defer func() { end(err) }()

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	if err := c.client.Set(ctx, key, data, c.jitteredTTL()).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Ping checks the Redis connection.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) jitteredTTL() time.Duration {
	spread := int64(c.ttl / 10)
	if spread <= 0 {
		return c.ttl
	}
	return c.ttl + time.Duration(rand.Int64N(spread))
}
