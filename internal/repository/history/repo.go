// Package history persists per-session conversation turns in a key-value store.
package history

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kailas-cloud/studyplan/internal/db"
	"github.com/kailas-cloud/studyplan/internal/domain"
	"github.com/kailas-cloud/studyplan/internal/domain/conversation"
)

// store is the consumer interface for session history (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

// Config bounds each session.
type Config struct {
	KeyPrefix string
	MaxTurns  int           // 0 = unbounded
	TTL       time.Duration // 0 = no expiry
}

// Repo implements usecase/chat.History.
type Repo struct {
	store    store
	prefix   string
	maxTurns int
	ttl      time.Duration
}

// New creates a history repository.
func New(s store, cfg Config) *Repo {
	return &Repo{store: s, prefix: cfg.KeyPrefix, maxTurns: cfg.MaxTurns, ttl: cfg.TTL}
}

// Load returns the turns of a session. An unknown session has no turns.
func (r *Repo) Load(ctx context.Context, sessionID string) ([]conversation.Turn, error) {
	b, err := r.store.Get(ctx, r.key(sessionID))
	if errors.Is(err, db.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w: %w", sessionID, domain.ErrSessionStore, err)
	}
	turns, err := decodeTurns(b)
	if err != nil {
		return nil, fmt.Errorf("decode session %s: %w: %w", sessionID, domain.ErrSessionStore, err)
	}
	return turns, nil
}

// Append adds turns to a session, trims it to the configured window and
// refreshes its TTL.
func (r *Repo) Append(ctx context.Context, sessionID string, turns ...conversation.Turn) error {
	if len(turns) == 0 {
		return nil
	}
	existing, err := r.Load(ctx, sessionID)
	if err != nil {
		return err
	}
	all := conversation.Window(append(existing, turns...), r.maxTurns)

	b, err := encodeTurns(all)
	if err != nil {
		return fmt.Errorf("encode session %s: %w: %w", sessionID, domain.ErrSessionStore, err)
	}
	if err := r.store.SetWithTTL(ctx, r.key(sessionID), b, r.ttl); err != nil {
		return fmt.Errorf("save session %s: %w: %w", sessionID, domain.ErrSessionStore, err)
	}
	return nil
}

// Delete forgets a session.
func (r *Repo) Delete(ctx context.Context, sessionID string) error {
	if err := r.store.Del(ctx, r.key(sessionID)); err != nil {
		return fmt.Errorf("delete session %s: %w: %w", sessionID, domain.ErrSessionStore, err)
	}
	return nil
}

func (r *Repo) key(sessionID string) string {
	return r.prefix + "history:" + sessionID
}
