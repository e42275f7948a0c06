package searchcache

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/studyplan/internal/db"
	"github.com/kailas-cloud/studyplan/internal/domain/search/result"
)

type mockSearcher struct {
	results []result.Result
	err     error
	calls   int
}

func (m *mockSearcher) Search(_ context.Context, _ string, _ int) ([]result.Result, error) {
	m.calls++
	return m.results, m.err
}

// mockKVStore implements the consumer interface for tests.
type mockKVStore struct {
	data  map[string][]byte
	ttls  map[string]time.Duration
	getFn func(ctx context.Context, key string) ([]byte, error)
	setFn func(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

func newMockKVStore() *mockKVStore {
	return &mockKVStore{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *mockKVStore) Get(ctx context.Context, key string) ([]byte, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	v, ok := m.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (m *mockKVStore) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if m.setFn != nil {
		return m.setFn(ctx, key, value, ttl)
	}
	m.data[key] = value
	m.ttls[key] = ttl
	return nil
}

func newTestCachedSearcher(inner *mockSearcher) (*CachedSearcher, *mockKVStore) {
	ms := newMockKVStore()
	cs := New(inner, ms, Config{KeyPrefix: "sp:", TTL: time.Hour}, nil, zap.NewNop())
	return cs, ms
}

func sampleResults() []result.Result {
	return []result.Result{
		result.New("Go Tour", "https://go.dev/tour", "Interactive intro"),
		result.New("Effective Go", "https://go.dev/doc/effective_go", ""),
	}
}
