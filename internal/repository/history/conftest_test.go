package history

import (
	"context"
	"testing"
	"time"

	"github.com/kailas-cloud/studyplan/internal/db"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	data map[string][]byte
	ttls map[string]time.Duration

	getFn func(ctx context.Context, key string) ([]byte, error)
	setFn func(ctx context.Context, key string, value []byte, ttl time.Duration) error
	delFn func(ctx context.Context, key string) error
}

func (m *mockStore) Get(ctx context.Context, key string) ([]byte, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	v, ok := m.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (m *mockStore) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if m.setFn != nil {
		return m.setFn(ctx, key, value, ttl)
	}
	m.data[key] = value
	m.ttls[key] = ttl
	return nil
}

func (m *mockStore) Del(ctx context.Context, key string) error {
	if m.delFn != nil {
		return m.delFn(ctx, key)
	}
	delete(m.data, key)
	return nil
}

func newTestRepo(t *testing.T, cfg Config) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
	return New(ms, cfg), ms
}
