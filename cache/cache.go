// Package cache stores short-lived string values, with JSON helpers for typed
// entries. The rate provider uses it to avoid refetching reference rates.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var (
	ErrKeyNotFound   = errors.New("key not found")
	ErrJsonMarshal   = errors.New("failed to marshal value to json")
	ErrJsonUnmarshal = errors.New("failed to unmarshal value from json")
)

// Cache is implemented by the Redis and freecache backends. Get reports a
// missing or expired key as ErrKeyNotFound.
type Cache interface {
	Set(ctx context.Context, key string, value string, expiry time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
}

func SetTyped[T any](ctx context.Context, c Cache, key string, value T, expiry time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrJsonMarshal, key, err)
	}
	return c.Set(ctx, key, string(data), expiry)
}

// GetTyped decodes the entry under key. A corrupt entry yields
// ErrJsonUnmarshal so callers can fall back to the source.
func GetTyped[T any](ctx context.Context, c Cache, key string) (T, error) {
	var result T

	value, err := c.Get(ctx, key)
	if err != nil {
		return result, err
	}
	if err := json.Unmarshal([]byte(value), &result); err != nil {
		return result, fmt.Errorf("%w: %s: %v", ErrJsonUnmarshal, key, err)
	}
	return result, nil
}
