// Package memory is an in-process db.Store for single-instance deployments.
package memory

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/kailas-cloud/studyplan/internal/db"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

// Config holds the cache bounds.
type Config struct {
	MaxKeys int           // evicts least recently used beyond this
	TTL     time.Duration // upper bound for every key; 0 = no store-wide expiry
}

// entry is a stored value with its own deadline (zero = only the store TTL applies).
type entry struct {
	val      []byte
	deadline time.Time
}

// Store keeps values in an expiring LRU cache. Contents are lost on restart.
// Per-key TTLs from SetWithTTL and Expire are honored within the store TTL.
type Store struct {
	cache *expirable.LRU[string, entry]
	mu    sync.Mutex // serializes read-modify-write in IncrBy and Expire
	now   func() time.Time
}

// NewStore creates an in-memory store.
func NewStore(cfg Config) *Store {
	size := cfg.MaxKeys
	if size <= 0 {
		size = 10000
	}
	return &Store{
		cache: expirable.NewLRU[string, entry](size, nil, cfg.TTL),
		now:   time.Now,
	}
}

// Ping always succeeds.
func (s *Store) Ping(_ context.Context) error { return nil }

// WaitForReady returns immediately.
func (s *Store) WaitForReady(_ context.Context, _ time.Duration) error { return nil }

// Close drops all keys.
func (s *Store) Close() { s.cache.Purge() }

// Get returns a copy of the stored value.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	e, ok := s.live(key)
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	out := make([]byte, len(e.val))
	copy(out, e.val)
	return out, nil
}

// SetWithTTL stores a copy of value. ttl <= 0 leaves only the store TTL.
func (s *Store) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	v := make([]byte, len(value))
	copy(v, value)
	e := entry{val: v}
	if ttl > 0 {
		e.deadline = s.now().Add(ttl)
	}
	s.cache.Add(key, e)
	return nil
}

// Del removes a key.
func (s *Store) Del(_ context.Context, key string) error {
	s.cache.Remove(key)
	return nil
}

// Len reports the number of keys held, including ones past their own deadline.
func (s *Store) Len() int { return s.cache.Len() }

// IncrBy increments an integer key, creating it at zero. The key keeps its deadline.
func (s *Store) IncrBy(_ context.Context, key string, val int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, _ := s.live(key)
	var cur int64
	if e.val != nil {
		n, err := strconv.ParseInt(string(e.val), 10, 64)
		if err != nil {
			return &db.Error{Op: db.OpIncrBy, Err: fmt.Errorf("value is not an integer: %w", err)}
		}
		cur = n
	}
	e.val = []byte(strconv.FormatInt(cur+val, 10))
	s.cache.Add(key, e)
	return nil
}

// Expire sets a deadline on an existing key. With nx, only keys without one are touched.
func (s *Store) Expire(_ context.Context, key string, ttl time.Duration, nx bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.live(key)
	if !ok || (nx && !e.deadline.IsZero()) {
		return nil
	}
	e.deadline = s.now().Add(ttl)
	s.cache.Add(key, e)
	return nil
}

// live returns the entry unless it is missing or past its deadline; expired entries are dropped.
func (s *Store) live(key string) (entry, bool) {
	e, ok := s.cache.Get(key)
	if !ok {
		return entry{}, false
	}
	if !e.deadline.IsZero() && !s.now().Before(e.deadline) {
		s.cache.Remove(key)
		return entry{}, false
	}
	return e, true
}
