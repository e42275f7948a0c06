package studyplan

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/studyplan/internal/config"
	"github.com/kailas-cloud/studyplan/internal/db"
	dbMemory "github.com/kailas-cloud/studyplan/internal/db/memory"
	dbRedis "github.com/kailas-cloud/studyplan/internal/db/redis"
	"github.com/kailas-cloud/studyplan/internal/domain"
	"github.com/kailas-cloud/studyplan/internal/domain/backend"
	domplan "github.com/kailas-cloud/studyplan/internal/domain/studyplan"
	historyrepo "github.com/kailas-cloud/studyplan/internal/repository/history"
	"github.com/kailas-cloud/studyplan/internal/transport/duckduckgo"
	"github.com/kailas-cloud/studyplan/internal/transport/gemini"
	openaiChat "github.com/kailas-cloud/studyplan/internal/transport/openai"
	chatuc "github.com/kailas-cloud/studyplan/internal/usecase/chat"
	healthuc "github.com/kailas-cloud/studyplan/internal/usecase/health"
	llmuc "github.com/kailas-cloud/studyplan/internal/usecase/llm"
)

const (
	defaultReadinessTimeout = 10 * time.Second
	defaultLLMTimeout       = 60 * time.Second
	defaultMaxTurns         = 20
	defaultSessionTTL       = 24 * time.Hour
	defaultKeyPrefix        = "studyplan:"
)

// Internal interface for substitution in tests.
type chatUseCase interface {
	Handle(ctx context.Context, sessionID, message string) (string, error)
	GenerateStudyPlan(ctx context.Context, sessionID, topic string) string
	GenerateResponse(ctx context.Context, sessionID, text string) string
	Reset(ctx context.Context, sessionID string) error
}

// Client is the studyplan SDK entry point. It is safe for concurrent use;
// calls on the same session id are serialized.
type Client struct {
	store     db.Store
	chat      chatUseCase
	healthSvc healthUseCase
	state     backend.State
	obs       *observer
}

// New creates a Client. Without a model option, or when the model cannot be
// configured, the client is degraded and serves fixed fallback replies.
// The provided context is used for the store readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		driver:     "memory",
		maxTurns:   defaultMaxTurns,
		sessionTTL: defaultSessionTTL,
		keyPrefix:  defaultKeyPrefix,
	}
	for _, o := range opts {
		o.apply(cfg)
	}

	store, err := createStore(cfg)
	if err != nil {
		return nil, err
	}

	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("studyplan: store not ready: %w", err)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		store.Close()
		return nil, err
	}
	return wireClient(ctx, store, cfg, obs), nil
}

func createStore(cfg *clientConfig) (db.Store, error) {
	switch cfg.driver {
	case "memory":
		return dbMemory.NewStore(dbMemory.Config{MaxKeys: cfg.maxSessions, TTL: cfg.sessionTTL}), nil
	case "redis":
		if len(cfg.addrs) == 0 || cfg.addrs[0] == "" {
			return nil, errors.New("studyplan: redis address required")
		}
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.addrs,
			Password: cfg.password,
		})
		if err != nil {
			return nil, fmt.Errorf("studyplan: create redis store: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("studyplan: unknown driver %q", cfg.driver)
	}
}

func wireClient(ctx context.Context, store db.Store, cfg *clientConfig, obs *observer) *Client {
	be := backend.Open(func() (domain.LLM, error) { return buildLLM(ctx, cfg) })
	if obs != nil && obs.logger != nil && be.State() == backend.StateDegraded {
		obs.logger.Warn("language model unavailable, serving fallbacks", "reason", be.Reason())
	}

	history := historyrepo.New(store, historyrepo.Config{
		KeyPrefix: cfg.keyPrefix,
		MaxTurns:  cfg.maxTurns,
		TTL:       cfg.sessionTTL,
	})

	// nil interface, not a typed nil, when search is off
	var searcher chatuc.Searcher
	switch {
	case cfg.noSearch:
	case cfg.searcher != nil:
		searcher = &searcherAdapter{inner: cfg.searcher}
	default:
		searcher = duckduckgo.New(duckduckgo.Config{})
	}

	var opts chatuc.Options
	if !cfg.noSanitize {
		opts.Sanitizer = domplan.NewSanitizer()
	}

	return &Client{
		store:     store,
		chat:      chatuc.New(be, history, searcher, opts, zap.NewNop()),
		healthSvc: healthuc.New(store, be),
		state:     be.State(),
		obs:       obs,
	}
}

// buildLLM assembles the decorator chain: provider (or user model) -> Instrumented (timeout).
func buildLLM(ctx context.Context, cfg *clientConfig) (domain.LLM, error) {
	var (
		base     domain.LLM
		model    = cfg.model
		provider = cfg.provider
	)
	switch {
	case cfg.llm != nil:
		base = &llmAdapter{inner: cfg.llm}
		provider = "custom"
	case cfg.provider == config.ProviderGemini:
		if model == "" {
			model = config.DefaultModel
		}
		c, err := gemini.NewChat(ctx, &gemini.Config{APIKey: cfg.apiKey, BaseURL: cfg.baseURL, Model: model})
		if err != nil {
			return nil, fmt.Errorf("studyplan: %w", err)
		}
		base = c
	case cfg.provider == config.ProviderOpenAI:
		c, err := openaiChat.NewChat(&openaiChat.Config{APIKey: cfg.apiKey, BaseURL: cfg.baseURL, Model: model})
		if err != nil {
			return nil, fmt.Errorf("studyplan: %w", err)
		}
		base = c
	default:
		return nil, errNoModel
	}

	return llmuc.NewInstrumentedLLM(base, provider, model, defaultLLMTimeout, nil, zap.NewNop()), nil
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Degraded reports whether the client is serving fixed fallback replies.
func (c *Client) Degraded() bool {
	return c.state != backend.StateReady
}

// Ping checks store connectivity.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("ping", start, err) }()

	if err = c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Chat routes a message like the HTTP endpoint: study-plan requests return an
// HTML table, everything else a text reply. The only error is ErrEmptyMessage.
func (c *Client) Chat(ctx context.Context, sessionID, message string) (reply string, err error) {
	start := time.Now()
	defer func() { c.obs.observe("chat", start, err, "session_id", sessionID) }()

	reply, err = c.chat.Handle(ctx, sessionID, message)
	if err != nil {
		return "", fmt.Errorf("chat: %w", err)
	}
	return reply, nil
}

// StudyPlan returns an HTML study-plan table for topic, skipping intent routing.
func (c *Client) StudyPlan(ctx context.Context, sessionID, topic string) string {
	start := time.Now()
	defer func() { c.obs.observe("study_plan", start, nil, "session_id", sessionID) }()

	return c.chat.GenerateStudyPlan(ctx, sessionID, topic)
}

// Respond returns a conversational reply, or a web-search answer when text
// starts with "search:" or "/search ".
func (c *Client) Respond(ctx context.Context, sessionID, text string) string {
	start := time.Now()
	defer func() { c.obs.observe("respond", start, nil, "session_id", sessionID) }()

	return c.chat.GenerateResponse(ctx, sessionID, text)
}

// Reset forgets a session's history.
func (c *Client) Reset(ctx context.Context, sessionID string) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("reset", start, err, "session_id", sessionID) }()

	if err = c.chat.Reset(ctx, sessionID); err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	return nil
}
