package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/kailas-cloud/studyplan/internal/config"
	"github.com/kailas-cloud/studyplan/internal/db"
	"github.com/kailas-cloud/studyplan/internal/domain"
	"github.com/kailas-cloud/studyplan/internal/domain/backend"
	"github.com/kailas-cloud/studyplan/internal/domain/studyplan"
	logpkg "github.com/kailas-cloud/studyplan/internal/logger"
	"github.com/kailas-cloud/studyplan/internal/metrics"
	budgetrepo "github.com/kailas-cloud/studyplan/internal/repository/budget"
	historyrepo "github.com/kailas-cloud/studyplan/internal/repository/history"
	"github.com/kailas-cloud/studyplan/internal/repository/searchcache"
	chiTransport "github.com/kailas-cloud/studyplan/internal/transport/chi"
	"github.com/kailas-cloud/studyplan/internal/transport/duckduckgo"
	"github.com/kailas-cloud/studyplan/internal/transport/gemini"
	openaiChat "github.com/kailas-cloud/studyplan/internal/transport/openai"
	chatuc "github.com/kailas-cloud/studyplan/internal/usecase/chat"
	healthuc "github.com/kailas-cloud/studyplan/internal/usecase/health"
	llmuc "github.com/kailas-cloud/studyplan/internal/usecase/llm"
	usageuc "github.com/kailas-cloud/studyplan/internal/usecase/usage"
	"github.com/kailas-cloud/studyplan/internal/version"
)

func main() {
	// Runs last, after every other deferred cleanup.
	exitCode := 0
	defer func() {
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	}()

	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting studyplan server",
		zap.String("build", version.String()),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.String("llm_provider", cfg.LLM.Provider),
		zap.String("llm_model", cfg.LLM.Model),
		zap.Bool("llm_api_key_set", cfg.LLM.APIKey != ""),
	)

	ctx := context.Background()
	ttl := time.Duration(cfg.Chat.SessionTTLSec) * time.Second

	st, err := openStores(cfg)
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer st.Close()

	if err := st.sessions.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Error("Database not ready", zap.Error(err))
		exitCode = 1
		return
	}
	logger.Info("Connected to database")

	// Register metrics explicitly (no init())
	metrics.RegisterChatMetrics()
	metrics.RegisterHTTPMetrics()

	// Pass nil interface (not typed nil pointer!) if budget is not configured.
	// Go gotcha: (*BudgetTracker)(nil) wrapped in BudgetChecker != nil.
	var budgetChecker llmuc.BudgetChecker
	var usageSvc *usageuc.Service
	if b := cfg.LLM.Budget; b.Enabled() {
		action := llmuc.BudgetActionWarn
		if b.Action == "reject" {
			action = llmuc.BudgetActionReject
		}
		tracker := llmuc.NewBudgetTracker(cfg.LLM.Provider, b.DailyTokenLimit, b.MonthlyTokenLimit, action, logger)
		tracker.WithStore(ctx, budgetrepo.New(st.budget, 24*time.Hour), cfg.Storage.KeyPrefix)
		budgetChecker = tracker
		usageSvc = usageuc.New(tracker)
	}

	be := backend.Open(func() (domain.LLM, error) {
		return buildLLM(ctx, cfg.LLM, budgetChecker, logger)
	})
	if be.State() == backend.StateReady {
		logger.Info("Language model ready", zap.String("provider", cfg.LLM.Provider))
	} else {
		logger.Warn("Language model unavailable, serving fallbacks", zap.Error(be.Reason()))
	}

	history := historyrepo.New(st.sessions, historyrepo.Config{
		KeyPrefix: cfg.Storage.KeyPrefix,
		MaxTurns:  cfg.Chat.MaxHistoryTurns,
		TTL:       ttl,
	})

	var searcher chatuc.Searcher
	if cfg.Search.IsEnabled() {
		searcher = buildSearcher(cfg, st.searchCache, logger)
	}

	opts := chatuc.Options{MaxSearchResults: cfg.Search.MaxResults}
	if cfg.Chat.ShouldSanitize() {
		opts.Sanitizer = studyplan.NewSanitizer()
	}

	chatSvc := chatuc.New(be, history, searcher, opts, logger)
	healthSvc := healthuc.New(st.sessions, be)

	var limiter *chiTransport.RateLimiter
	if cfg.HTTP.RateLimitRPS > 0 {
		limiter = chiTransport.NewRateLimiter(cfg.HTTP.RateLimitRPS, cfg.HTTP.RateLimitBurst)
		defer limiter.Stop()
	}

	server := chiTransport.NewServer(chatSvc, healthSvc, logger)
	if usageSvc != nil {
		server.WithUsage(usageSvc)
	}
	router := chiTransport.NewRouter(server, chiTransport.RouterConfig{
		APIKeys:    cfg.Auth.APIKeys,
		RateLimit:  limiter,
		TrustProxy: cfg.HTTP.TrustProxy,
	}, logger)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadTimeout:       time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		ReadHeaderTimeout: time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout:      time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case <-quit:
		logger.Info("Received shutdown signal")
	case err := <-serveErr:
		// Return instead of Fatal so deferred Close and Stop still run.
		logger.Error("HTTP server error", zap.Error(err))
		exitCode = 1
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// buildSearcher assembles the decorator chain: DuckDuckGo -> Cached (when cache_ttl_sec > 0).
func buildSearcher(cfg config.Config, store db.Store, logger *zap.Logger) domain.Searcher {
	ddg := duckduckgo.New(duckduckgo.Config{
		BaseURL:   cfg.Search.BaseURL,
		UserAgent: cfg.Search.UserAgent,
		Timeout:   time.Duration(cfg.Search.TimeoutSec) * time.Second,
		Logger:    logger,
	})
	if cfg.Search.CacheTTLSec <= 0 {
		return ddg
	}
	return searchcache.New(ddg, store, searchcache.Config{
		KeyPrefix: cfg.Storage.KeyPrefix,
		TTL:       time.Duration(cfg.Search.CacheTTLSec) * time.Second,
	}, metrics.SearchCacheTotal, logger)
}

// buildLLM assembles the decorator chain: provider transport -> Instrumented (budget + timeout).
// A missing credential fails here and leaves the backend degraded.
func buildLLM(
	ctx context.Context,
	cfg config.LLMConfig,
	budget llmuc.BudgetChecker,
	logger *zap.Logger,
) (domain.LLM, error) {
	var temperature float32
	if cfg.Temperature != nil {
		temperature = *cfg.Temperature
	}

	var base domain.LLM
	switch cfg.Provider {
	case config.ProviderGemini:
		c, err := gemini.NewChat(ctx, &gemini.Config{
			APIKey:      cfg.APIKey,
			BaseURL:     cfg.BaseURL,
			Model:       cfg.Model,
			Temperature: temperature,
			Logger:      logger,
		})
		if err != nil {
			return nil, fmt.Errorf("gemini backend: %w", err)
		}
		base = c
	case config.ProviderOpenAI:
		c, err := openaiChat.NewChat(&openaiChat.Config{
			APIKey:      cfg.APIKey,
			BaseURL:     cfg.BaseURL,
			Model:       cfg.Model,
			Temperature: temperature,
			Provider:    cfg.Provider,
			Logger:      logger,
		})
		if err != nil {
			return nil, fmt.Errorf("openai backend: %w", err)
		}
		base = c
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}

	return llmuc.NewInstrumentedLLM(
		base, cfg.Provider, cfg.Model,
		time.Duration(cfg.TimeoutSec)*time.Second,
		budget, logger,
	), nil
}
