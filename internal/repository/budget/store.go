// Package budget persists language-model token counters so the daily and
// monthly budgets survive restarts and are shared between replicas.
package budget

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kailas-cloud/studyplan/internal/db"
)

// store is the consumer interface for budget operations (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	IncrBy(ctx context.Context, key string, val int64) error
	Expire(ctx context.Context, key string, ttl time.Duration, nx bool) error
}

// Store keeps token counters on top of DB (INCRBY + GET with expiry).
// A counter expires a grace period after its day or month closes.
type Store struct {
	store store
	grace time.Duration
	now   func() time.Time
}

// New creates a budget store. grace is how long a counter outlives its period.
func New(s store, grace time.Duration) *Store {
	return &Store{store: s, grace: grace, now: time.Now}
}

// IncrBy atomically increments the counter and sets its expiry.
func (s *Store) IncrBy(ctx context.Context, key string, val int64) error {
	if err := s.store.IncrBy(ctx, key, val); err != nil {
		return fmt.Errorf("budget INCRBY %s: %w", key, err)
	}

	// NX: the first increment of a period fixes the expiry.
	if err := s.store.Expire(ctx, key, s.ttlForKey(key), true); err != nil {
		return fmt.Errorf("budget EXPIRE %s: %w", key, err)
	}
	return nil
}

// Get returns the counter value. Returns 0 if the key does not exist.
func (s *Store) Get(ctx context.Context, key string) (int64, error) {
	data, err := s.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("budget GET %s: %w", key, err)
	}

	val, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("budget GET %s parse: %w", key, err)
	}
	return val, nil
}

// ttlForKey reads the period from keys shaped {prefix}budget:{provider}:daily:2006-01-02
// or ...:monthly:2006-01. Unrecognized keys get the grace period alone.
func (s *Store) ttlForKey(key string) time.Duration {
	end, ok := periodEnd(key)
	if !ok {
		return s.grace
	}
	ttl := end.Sub(s.now().UTC()) + s.grace
	if ttl < s.grace {
		return s.grace
	}
	return ttl
}

func periodEnd(key string) (time.Time, bool) {
	if _, stamp, ok := strings.Cut(key, ":daily:"); ok {
		day, err := time.Parse("2006-01-02", stamp)
		if err != nil {
			return time.Time{}, false
		}
		return day.AddDate(0, 0, 1), true
	}
	if _, stamp, ok := strings.Cut(key, ":monthly:"); ok {
		month, err := time.Parse("2006-01", stamp)
		if err != nil {
			return time.Time{}, false
		}
		return month.AddDate(0, 1, 0), true
	}
	return time.Time{}, false
}
