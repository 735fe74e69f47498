package util

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisConfig struct {
	Addr           string        `mapstructure:"REDIS_ADDR"`
	Password       string        `mapstructure:"REDIS_PASSWORD"`
	DB             int64         `mapstructure:"REDIS_DB"`
	ConnectTimeout time.Duration `mapstructure:"REDIS_CONNECT_TIMEOUT"`
}

// NewRedisClient connects and pings once; the client is closed again when the
// ping fails so no pool is leaked.
func NewRedisClient(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	connectTimeout := cfg.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = 5 * time.Second
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          int(cfg.DB),
		DialTimeout: connectTimeout,
	})

	timeoutCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := redisClient.Ping(timeoutCtx).Err(); err != nil {
		_ = redisClient.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}
	return redisClient, nil
}
