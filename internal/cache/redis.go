// internal/cache/redis.go
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/smartotem/totem-backend/internal/config"
)

type RedisProvider struct {
	client *redis.Client
	prefix string
}

// NewRedisClient connects and pings the configured Redis.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr(), err)
	}
	logrus.WithField("addr", cfg.Addr()).Info("Connected to Redis")
	return client, nil
}

func NewRedisProvider(client *redis.Client, prefix string) *RedisProvider {
	return &RedisProvider{client: client, prefix: prefix}
}

func (r *RedisProvider) key(k string) string {
	return r.prefix + k
}

func (r *RedisProvider) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := r.client.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get from cache: %w", err)
	}
	return data, nil
}

func (r *RedisProvider) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := r.client.Set(ctx, r.key(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set in cache: %w", err)
	}
	return nil
}

func (r *RedisProvider) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = r.key(k)
	}
	if err := r.client.Del(ctx, full...).Err(); err != nil {
		return fmt.Errorf("failed to delete from cache: %w", err)
	}
	return nil
}

// New picks Redis when enabled and reachable, otherwise the in-memory provider.
func New(ctx context.Context, cfg config.RedisConfig) (Provider, func()) {
	if !cfg.Enabled {
		return NewMemoryProvider(), func() {}
	}
	client, err := NewRedisClient(ctx, cfg)
	if err != nil {
		logrus.WithError(err).Warn("Redis unavailable, falling back to in-memory cache")
		return NewMemoryProvider(), func() {}
	}
	return NewRedisProvider(client, "totem:"), func() { client.Close() }
}
