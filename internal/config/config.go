package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the studyplan server configuration.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	LLM      LLMConfig      `yaml:"llm"`
	Search   SearchConfig   `yaml:"search"`
	Chat     ChatConfig     `yaml:"chat"`
	Auth     AuthConfig     `yaml:"auth"`
	Storage  StorageConfig  `yaml:"storage"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int     `yaml:"port"`
	ReadTimeoutSec  int     `yaml:"read_timeout_sec"`
	WriteTimeoutSec int     `yaml:"write_timeout_sec"`
	ShutdownSec     int     `yaml:"shutdown_timeout_sec"`
	RateLimitRPS    float64 `yaml:"rate_limit_rps"` // 0 = unlimited
	RateLimitBurst  int     `yaml:"rate_limit_burst"`
	TrustProxy      bool    `yaml:"trust_proxy"`
}

// Database drivers.
const (
	DriverMemory = "memory"
	DriverRedis  = "redis"
)

// DatabaseConfig holds session store settings.
type DatabaseConfig struct {
	Driver            string   `yaml:"driver"` // memory, redis (default: memory)
	Addrs             []string `yaml:"addrs"`
	Password          string   `yaml:"password"`
	ReadinessTimeout  int      `yaml:"readiness_timeout_sec"`
	MemoryMaxSessions int      `yaml:"memory_max_sessions"`
}

// LLM providers.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// DefaultModel is the Gemini model used when none is configured.
const DefaultModel = "gemini-1.5-flash"

// LLMConfig holds language-model backend settings.
type LLMConfig struct {
	Provider    string       `yaml:"provider"` // gemini, openai (default: gemini)
	APIKey      string       `yaml:"api_key"`
	BaseURL     string       `yaml:"base_url"`
	Model       string       `yaml:"model"`
	TimeoutSec  int          `yaml:"timeout_sec"`
	Temperature *float32     `yaml:"temperature"` // nil = provider default
	Budget      BudgetConfig `yaml:"budget"`
}

// BudgetConfig holds token budget settings.
type BudgetConfig struct {
	DailyTokenLimit   int64  `yaml:"daily_token_limit"`   // 0 = unlimited
	MonthlyTokenLimit int64  `yaml:"monthly_token_limit"` // 0 = unlimited
	Action            string `yaml:"action"`              // "reject" | "warn" (default)
}

// Enabled reports whether any limit is set.
func (b BudgetConfig) Enabled() bool {
	return b.DailyTokenLimit > 0 || b.MonthlyTokenLimit > 0
}

// SearchConfig holds web search settings.
type SearchConfig struct {
	Enabled         *bool  `yaml:"enabled"` // nil = true
	BaseURL         string `yaml:"base_url"`
	MaxResults      int    `yaml:"max_results"`
	TimeoutSec      int    `yaml:"timeout_sec"`
	UserAgent       string `yaml:"user_agent"`
	CacheTTLSec     int    `yaml:"cache_ttl_sec"`     // 0 = no caching
	CacheMaxEntries int    `yaml:"cache_max_entries"` // memory driver only
}

// IsEnabled reports whether web search is on.
func (s SearchConfig) IsEnabled() bool {
	return s.Enabled == nil || *s.Enabled
}

// ChatConfig holds conversation settings.
type ChatConfig struct {
	MaxHistoryTurns int   `yaml:"max_history_turns"`
	SessionTTLSec   int   `yaml:"session_ttl_sec"`
	SanitizeHTML    *bool `yaml:"sanitize_html"` // nil = true
}

// ShouldSanitize reports whether study-plan tables are sanitized.
func (c ChatConfig) ShouldSanitize() bool {
	return c.SanitizeHTML == nil || *c.SanitizeHTML
}

// StorageConfig holds storage settings.
type StorageConfig struct {
	KeyPrefix string `yaml:"key_prefix"`
}

// Load reads configuration from a YAML file by environment name (local, dev, docker, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse decodes YAML after env substitution, then applies defaults and validates.
func Parse(data []byte) (Config, error) {
	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 5000
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 90
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.HTTP.RateLimitRPS > 0 && c.HTTP.RateLimitBurst <= 0 {
		c.HTTP.RateLimitBurst = 5
	}
	if c.Database.Driver == "" {
		c.Database.Driver = DriverMemory
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Database.MemoryMaxSessions <= 0 {
		c.Database.MemoryMaxSessions = 10000
	}
	if c.LLM.Provider == "" {
		c.LLM.Provider = ProviderGemini
	}
	if c.LLM.Model == "" && c.LLM.Provider == ProviderGemini {
		c.LLM.Model = DefaultModel
	}
	if c.LLM.TimeoutSec <= 0 {
		c.LLM.TimeoutSec = 60
	}
	if c.Search.MaxResults <= 0 {
		c.Search.MaxResults = 6
	}
	if c.Search.TimeoutSec <= 0 {
		c.Search.TimeoutSec = 10
	}
	if c.Search.CacheMaxEntries <= 0 {
		c.Search.CacheMaxEntries = 1000
	}
	if c.Chat.MaxHistoryTurns <= 0 {
		c.Chat.MaxHistoryTurns = 20
	}
	if c.Chat.SessionTTLSec <= 0 {
		c.Chat.SessionTTLSec = 86400
	}
	if c.Storage.KeyPrefix == "" {
		c.Storage.KeyPrefix = "studyplan:"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.HTTP.RateLimitRPS < 0 {
		return fmt.Errorf("http.rate_limit_rps must not be negative, got %g", c.HTTP.RateLimitRPS)
	}
	switch c.Database.Driver {
	case DriverMemory:
	case DriverRedis:
		if len(c.Database.Addrs) == 0 {
			return fmt.Errorf("database.addrs is required for driver %q", DriverRedis)
		}
	default:
		return fmt.Errorf("database.driver must be %q or %q, got %q", DriverMemory, DriverRedis, c.Database.Driver)
	}
	switch c.LLM.Provider {
	case ProviderGemini:
	case ProviderOpenAI:
		if c.LLM.Model == "" {
			return fmt.Errorf("llm.model is required for provider %q", ProviderOpenAI)
		}
	default:
		return fmt.Errorf("llm.provider must be %q or %q, got %q", ProviderGemini, ProviderOpenAI, c.LLM.Provider)
	}
	if t := c.LLM.Temperature; t != nil && (*t < 0 || *t > 2) {
		return fmt.Errorf("llm.temperature must be between 0 and 2, got %g", *t)
	}
	switch c.LLM.Budget.Action {
	case "", "warn", "reject":
		// ok
	default:
		return fmt.Errorf("llm.budget.action must be \"warn\" or \"reject\", got %q", c.LLM.Budget.Action)
	}
	if c.Search.CacheTTLSec < 0 {
		return fmt.Errorf("search.cache_ttl_sec must not be negative, got %d", c.Search.CacheTTLSec)
	}
	if c.Search.MaxResults > 20 {
		return fmt.Errorf("search.max_results must be at most 20, got %d", c.Search.MaxResults)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
