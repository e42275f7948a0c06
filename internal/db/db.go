package db

import (
	"context"
	"time"
)

// Store is the database facade used by the session history and budget repositories.
type Store interface {
	Pinger
	KVStore
	CounterStore
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// KVStore provides simple key-value operations.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

// CounterStore provides integer counters with expiry.
type CounterStore interface {
	IncrBy(ctx context.Context, key string, val int64) error
	// Expire sets TTL on a key. When nx=true, sets TTL only if the key has no expiry yet.
	Expire(ctx context.Context, key string, ttl time.Duration, nx bool) error
}
