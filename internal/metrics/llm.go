package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Language-model Prometheus metrics.
var (
	LLMRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "studyplan",
			Name:      "llm_requests_total",
			Help:      "Total number of language-model requests",
		},
		[]string{"provider", "model", "status"},
	)

	LLMRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "studyplan",
			Name:      "llm_request_duration_seconds",
			Help:      "Language-model request duration in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 40, 60},
		},
		[]string{"provider", "model"},
	)

	LLMTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "studyplan",
			Name:      "llm_tokens_total",
			Help:      "Total language-model tokens consumed",
		},
		[]string{"provider", "model", "type"},
	)

	LLMBudgetTokensRemaining = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "studyplan",
			Name:      "llm_budget_tokens_remaining",
			Help:      "Remaining language-model token budget",
		},
		[]string{"provider", "period"},
	)

	LLMErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "studyplan",
			Name:      "llm_errors_total",
			Help:      "Total language-model errors",
		},
		[]string{"provider", "model", "error_type"},
	)
)

// Web search Prometheus metrics.
var (
	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "studyplan",
			Name:      "search_requests_total",
			Help:      "Total number of web search requests",
		},
		[]string{"provider", "status"},
	)

	SearchRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "studyplan",
			Name:      "search_request_duration_seconds",
			Help:      "Web search request duration in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"provider"},
	)

	SearchCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "studyplan",
			Name:      "search_cache_total",
			Help:      "Web search cache lookups by result (hit, miss)",
		},
		[]string{"result"},
	)

	SearchResults = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "studyplan",
			Name:      "search_results",
			Help:      "Number of usable results per web search",
			Buckets:   []float64{0, 1, 2, 3, 4, 5, 6, 8, 10},
		},
	)
)

// Chat Prometheus metrics.
var (
	ChatMessagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "studyplan",
			Name:      "chat_messages_total",
			Help:      "Chat messages by routed kind",
		},
		[]string{"kind"}, // "study_plan" / "chat" / "search"
	)

	ChatFallbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "studyplan",
			Name:      "chat_fallbacks_total",
			Help:      "Replies served from a fixed fallback instead of the model",
		},
		[]string{"reason"},
	)

	RateLimitedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "studyplan",
			Name:      "rate_limited_requests_total",
			Help:      "Requests rejected by the per-client rate limiter",
		},
	)
)

var registerOnce sync.Once

// RegisterChatMetrics registers the language-model, search and chat metrics.
// Safe to call more than once.
func RegisterChatMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			LLMRequestsTotal,
			LLMRequestDuration,
			LLMTokensTotal,
			LLMErrorsTotal,
			LLMBudgetTokensRemaining,
			SearchRequestsTotal,
			SearchRequestDuration,
			SearchResults,
			SearchCacheTotal,
			ChatMessagesTotal,
			ChatFallbacksTotal,
			RateLimitedTotal,
		)
	})
}

// ObserveLLM records a completed language-model call.
func ObserveLLM(provider, model string, seconds float64, promptTokens, totalTokens int) {
	LLMRequestsTotal.WithLabelValues(provider, model, "success").Inc()
	LLMRequestDuration.WithLabelValues(provider, model).Observe(seconds)
	if totalTokens > 0 {
		LLMTokensTotal.WithLabelValues(provider, model, "prompt").Add(float64(promptTokens))
		LLMTokensTotal.WithLabelValues(provider, model, "total").Add(float64(totalTokens))
	}
}

// ObserveLLMError records a failed language-model call.
func ObserveLLMError(provider, model, errorType string) {
	LLMRequestsTotal.WithLabelValues(provider, model, "error").Inc()
	LLMErrorsTotal.WithLabelValues(provider, model, errorType).Inc()
}
