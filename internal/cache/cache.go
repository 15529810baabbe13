// Package cache defines the store contract for normalized weather payloads.
package cache

import (
	"context"
	"time"
)

// Store is a TTL key/value store. Values are fully-normalized marshaled
// payloads; a Get never observes a partially written entry.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	Close() error
}
