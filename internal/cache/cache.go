// internal/cache/cache.go
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrMiss is returned by Get when the key is absent or expired.
var ErrMiss = errors.New("cache miss")

// Provider is the read-mostly cache in front of catalog lookups.
type Provider interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// GetJSON decodes a cached JSON value into out.
func GetJSON(ctx context.Context, p Provider, key string, out interface{}) error {
	data, err := p.Get(ctx, key)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

func SetJSON(ctx context.Context, p Provider, key string, v interface{}, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return p.Set(ctx, key, data, ttl)
}
