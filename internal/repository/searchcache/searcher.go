// Package searchcache keeps recent web search results in the session store
// so repeated queries skip the search provider.
package searchcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/studyplan/internal/db"
	"github.com/kailas-cloud/studyplan/internal/domain"
	"github.com/kailas-cloud/studyplan/internal/domain/search/result"
)

// store is the consumer interface for the search cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Compile-time check: CachedSearcher implements domain.Searcher.
var _ domain.Searcher = (*CachedSearcher)(nil)

// Config holds the cache settings.
type Config struct {
	KeyPrefix string
	TTL       time.Duration
}

// CachedSearcher caches search results in a key-value store.
type CachedSearcher struct {
	inner      domain.Searcher
	store      store
	prefix     string
	ttl        time.Duration
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates a caching decorator.
// cacheTotal is a counter vec with label "result" ("hit"/"miss"), passed explicitly.
func New(
	inner domain.Searcher,
	s store,
	cfg Config,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) *CachedSearcher {
	return &CachedSearcher{
		inner:      inner,
		store:      s,
		prefix:     cfg.KeyPrefix + "search_cache:",
		ttl:        cfg.TTL,
		cacheTotal: cacheTotal,
		logger:     logger,
	}
}

// Search returns cached results or calls the inner searcher.
// Store failures count as a miss. Empty result sets are not cached.
func (c *CachedSearcher) Search(ctx context.Context, query string, maxResults int) ([]result.Result, error) {
	key := c.cacheKey(query, maxResults)

	if results, ok := c.getFromCache(ctx, key); ok {
		c.incCache("hit")
		return results, nil
	}

	c.incCache("miss")

	results, err := c.inner.Search(ctx, query, maxResults)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	if len(results) > 0 {
		c.putToCache(ctx, key, results)
	}
	return results, nil
}

func (c *CachedSearcher) incCache(outcome string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(outcome).Inc()
	}
}

// cacheKey ignores case and surrounding whitespace of the query.
func (c *CachedSearcher) cacheKey(query string, maxResults int) string {
	norm := strings.ToLower(strings.TrimSpace(query)) + "\x00" + strconv.Itoa(maxResults)
	h := sha256.Sum256([]byte(norm))
	return c.prefix + hex.EncodeToString(h[:])
}

func (c *CachedSearcher) getFromCache(ctx context.Context, key string) ([]result.Result, bool) {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Failed to get cached search results", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	if len(data) == 0 {
		return nil, false
	}

	results, err := decodeResults(data)
	if err != nil {
		c.logger.Warn("Failed to parse cached search results", zap.String("key", key), zap.Error(err))
		return nil, false
	}

	return results, true
}

func (c *CachedSearcher) putToCache(ctx context.Context, key string, results []result.Result) {
	data, err := encodeResults(results)
	if err != nil {
		c.logger.Warn("Failed to encode search results", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.store.SetWithTTL(ctx, key, data, c.ttl); err != nil {
		c.logger.Warn("Failed to cache search results", zap.String("key", key), zap.Error(err))
	}
}

type resultRow struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet,omitempty"`
}

func encodeResults(results []result.Result) ([]byte, error) {
	rows := make([]resultRow, len(results))
	for i := range results {
		rows[i] = resultRow{Title: results[i].Title(), URL: results[i].URL(), Snippet: results[i].Snippet()}
	}
	b, err := json.Marshal(rows)
	if err != nil {
		return nil, fmt.Errorf("marshal results: %w", err)
	}
	return b, nil
}

func decodeResults(data []byte) ([]result.Result, error) {
	var rows []resultRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("unmarshal results: %w", err)
	}
	out := make([]result.Result, 0, len(rows))
	for _, r := range rows {
		res := result.New(r.Title, r.URL, r.Snippet)
		if !res.Valid() {
			return nil, fmt.Errorf("cached result missing title or url")
		}
		out = append(out, res)
	}
	return out, nil
}
