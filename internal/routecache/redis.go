package routecache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/gravitas-games/freepath/pkg/hex"
)

// RedisClient is the subset of *redis.Client the cache needs.
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisCache keeps routes in redis with a TTL. Servers sharing one redis
// should wrap it with Scoped so each world only sees its own routes.
type RedisCache struct {
	client RedisClient
	prefix string
	ttl    time.Duration
}

// NewRedisCache creates a cache storing keys under prefix for ttl.
func NewRedisCache(client RedisClient, prefix string, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, prefix: prefix, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]hex.Direction, bool, error) {
	s, err := c.client.Get(ctx, c.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read route %s: %w", key, err)
	}
	route, err := Decode(s)
	if err != nil {
		return nil, false, err
	}
	return route, true, nil
}

func (c *RedisCache) Put(ctx context.Context, key string, route []hex.Direction) error {
	if err := c.client.Set(ctx, c.prefix+key, Encode(route), c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store route %s: %w", key, err)
	}
	return nil
}

func (c *RedisCache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, c.prefix+key).Err(); err != nil {
		return fmt.Errorf("failed to delete route %s: %w", key, err)
	}
	return nil
}
