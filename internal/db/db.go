// Package db defines the key-value contracts behind the embedding cache.
package db

import (
	"context"
	"time"
)

// Cache is the key-value store facade used by the embedding cache.
type Cache interface {
	Pinger
	KVStore
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks store connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// KVItem is one key/value pair for pipelined writes.
type KVItem struct {
	Key   string
	Value []byte
}

// KVStore provides byte-valued key operations.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	// GetMulti returns one entry per key, nil where the key is missing.
	GetMulti(ctx context.Context, keys []string) ([][]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	SetMultiWithTTL(ctx context.Context, items []KVItem, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}
