package main

import (
	"fmt"
	"time"

	"github.com/kailas-cloud/studyplan/internal/config"
	"github.com/kailas-cloud/studyplan/internal/db"
	dbMemory "github.com/kailas-cloud/studyplan/internal/db/memory"
	dbRedis "github.com/kailas-cloud/studyplan/internal/db/redis"
)

// budgetMemoryKeys bounds the in-memory budget store: two live counters per provider.
const budgetMemoryKeys = 64

// stores holds one store per feature. With redis they share a client and
// are separated by key prefix; in memory each gets its own LRU so cached
// searches cannot evict conversations.
type stores struct {
	sessions    db.Store
	searchCache db.Store
	budget      db.Store
	closers     []func()
}

// openStores builds the stores for the configured driver.
func openStores(cfg config.Config) (*stores, error) {
	switch cfg.Database.Driver {
	case config.DriverMemory:
		s := &stores{
			sessions: dbMemory.NewStore(dbMemory.Config{
				MaxKeys: cfg.Database.MemoryMaxSessions,
				TTL:     time.Duration(cfg.Chat.SessionTTLSec) * time.Second,
			}),
			searchCache: dbMemory.NewStore(dbMemory.Config{
				MaxKeys: cfg.Search.CacheMaxEntries,
				TTL:     time.Duration(cfg.Search.CacheTTLSec) * time.Second,
			}),
			// Counters carry their own deadlines via EXPIRE.
			budget: dbMemory.NewStore(dbMemory.Config{MaxKeys: budgetMemoryKeys}),
		}
		s.closers = []func(){s.sessions.Close, s.searchCache.Close, s.budget.Close}
		return s, nil
	case config.DriverRedis:
		r, err := dbRedis.NewStore(dbRedis.Config{Addrs: cfg.Database.Addrs, Password: cfg.Database.Password})
		if err != nil {
			return nil, fmt.Errorf("redis store: %w", err)
		}
		return &stores{sessions: r, searchCache: r, budget: r, closers: []func(){r.Close}}, nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}
}

// Close releases every underlying store once.
func (s *stores) Close() {
	for _, c := range s.closers {
		c()
	}
}
