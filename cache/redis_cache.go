package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type redisCache struct {
	lg        *zap.Logger
	client    *redis.Client
	keyPrefix string
}

// NewRedisCache wraps an already connected client. Keys are namespaced with
// keyPrefix so several jobs can share one database.
func NewRedisCache(lg *zap.Logger, client *redis.Client, keyPrefix string) Cache {
	lg.Info("using redis cache", zap.String("addr", client.Options().Addr), zap.Int("db", client.Options().DB))
	return &redisCache{
		lg:        lg,
		client:    client,
		keyPrefix: keyPrefix,
	}
}

func (c *redisCache) key(key string) string {
	return c.keyPrefix + key
}

func (c *redisCache) Set(ctx context.Context, key string, value string, expiry time.Duration) error {
	if err := c.client.Set(ctx, c.key(key), value, expiry).Err(); err != nil {
		return fmt.Errorf("failed to set key %s: %w", key, err)
	}
	return nil
}

func (c *redisCache) Get(ctx context.Context, key string) (string, error) {
	data, err := c.client.Get(ctx, c.key(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrKeyNotFound
		}
		return "", fmt.Errorf("failed to get key %s: %w", key, err)
	}

	return data, nil
}

func (c *redisCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, c.key(key)).Err()
}
