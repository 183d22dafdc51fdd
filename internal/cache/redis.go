package cache

import (
	"context"
	"errors"
	"time"

	"apcsp-quiz/internal/logger"

	"github.com/redis/go-redis/v9"
)

type RedisCache struct {
	client *redis.Client
	prefix string
	log    *logger.Logger
}

func NewRedisCache(client *redis.Client, prefix string, log *logger.Logger) *RedisCache {
	return &RedisCache{client: client, prefix: prefix, log: log}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn("cache get failed", "key", key, "error", err)
		}
		return nil, false
	}
	return val, true
}

func (c *RedisCache) Put(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if err := c.client.Set(ctx, c.prefix+key, value, ttl).Err(); err != nil {
		c.log.Warn("cache put failed", "key", key, "error", err)
	}
}
