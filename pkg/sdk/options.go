package studyplan

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	driver      string // "memory" (default) or "redis"
	addrs       []string
	password    string
	maxSessions int

	provider string // "gemini" or "openai"
	apiKey   string
	baseURL  string
	model    string
	llm      LLM

	searcher   Searcher
	noSearch   bool
	noSanitize bool

	maxTurns   int
	sessionTTL time.Duration
	keyPrefix  string

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithGemini uses Google Gemini. An empty model selects gemini-1.5-flash.
// An empty key leaves the client degraded: every reply is a fixed fallback.
func WithGemini(apiKey, model string) Option {
	return optionFunc(func(c *clientConfig) {
		c.provider = "gemini"
		c.apiKey = apiKey
		c.model = model
	})
}

// WithOpenAI uses an OpenAI-compatible chat completions API.
// baseURL may be empty for api.openai.com.
func WithOpenAI(apiKey, baseURL, model string) Option {
	return optionFunc(func(c *clientConfig) {
		c.provider = "openai"
		c.apiKey = apiKey
		c.baseURL = baseURL
		c.model = model
	})
}

// WithLLM plugs in a custom model. Takes precedence over WithGemini and WithOpenAI.
func WithLLM(l LLM) Option {
	return optionFunc(func(c *clientConfig) {
		c.llm = l
	})
}

// WithRedis keeps session history in Redis or Valkey instead of process memory.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "redis"
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithMemory keeps at most maxSessions histories in process memory (the default store).
func WithMemory(maxSessions int) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "memory"
		c.maxSessions = maxSessions
	})
}

// WithHistory bounds each session to the last maxTurns turns, expiring after ttl.
// Defaults: 20 turns, 24h.
func WithHistory(maxTurns int, ttl time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.maxTurns = maxTurns
		c.sessionTTL = ttl
	})
}

// WithKeyPrefix namespaces store keys. Default: "studyplan:".
func WithKeyPrefix(prefix string) Option {
	return optionFunc(func(c *clientConfig) {
		c.keyPrefix = prefix
	})
}

// WithSearcher replaces the built-in DuckDuckGo search.
func WithSearcher(s Searcher) Option {
	return optionFunc(func(c *clientConfig) {
		c.searcher = s
		c.noSearch = false
	})
}

// WithoutSearch disables web search; search requests get the no-results reply.
func WithoutSearch() Option {
	return optionFunc(func(c *clientConfig) {
		c.searcher = nil
		c.noSearch = true
	})
}

// WithoutSanitizer returns model-generated tables without HTML sanitizing.
func WithoutSanitizer() Option {
	return optionFunc(func(c *clientConfig) {
		c.noSanitize = true
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
