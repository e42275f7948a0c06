// Package llm decorates a language-model backend with budget enforcement,
// per-call timeouts and request-scoped usage accounting.
package llm

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/studyplan/internal/domain"
	"github.com/kailas-cloud/studyplan/internal/domain/conversation"
	"github.com/kailas-cloud/studyplan/internal/metrics"
)

// BudgetChecker is the local interface for budget enforcement.
type BudgetChecker interface {
	Check(ctx context.Context) error
	Record(tokens int64)
	RemainingDaily() int64
	RemainingMonthly() int64
}

// Compile-time check: InstrumentedLLM implements domain.LLM.
var _ domain.LLM = (*InstrumentedLLM)(nil)

// InstrumentedLLM wraps an LLM with budget enforcement, a call timeout and logging.
// Transport metrics (requests, duration, tokens) are recorded by the transports.
type InstrumentedLLM struct {
	inner    domain.LLM
	provider string
	model    string
	timeout  time.Duration
	budget   BudgetChecker
	logger   *zap.Logger
}

// NewInstrumentedLLM wraps a backend. budget may be nil; timeout 0 disables the deadline.
func NewInstrumentedLLM(
	inner domain.LLM, provider, model string, timeout time.Duration,
	budget BudgetChecker, logger *zap.Logger,
) *InstrumentedLLM {
	return &InstrumentedLLM{
		inner:    inner,
		provider: provider,
		model:    model,
		timeout:  timeout,
		budget:   budget,
		logger:   logger,
	}
}

// Generate checks the budget, calls the inner backend once and records usage.
func (p *InstrumentedLLM) Generate(
	ctx context.Context, history []conversation.Turn, prompt string,
) (domain.Reply, error) {
	if p.budget != nil {
		if err := p.budget.Check(ctx); err != nil {
			p.logger.Error("Budget exceeded",
				zap.String("provider", p.provider),
				zap.String("model", p.model),
				zap.Error(err),
			)
			return domain.Reply{}, fmt.Errorf("budget check: %w", err)
		}
	}

	callCtx := ctx
	if p.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	start := time.Now()
	reply, err := p.inner.Generate(callCtx, history, prompt)
	duration := time.Since(start)

	if err != nil {
		p.logger.Error("LLM request failed",
			zap.String("provider", p.provider),
			zap.String("model", p.model),
			zap.Duration("duration", duration),
			zap.Int("history_turns", len(history)),
			zap.Error(err),
		)
		return domain.Reply{}, fmt.Errorf("generate: %w", err)
	}

	domain.UsageFromContext(ctx).AddTokens(reply.TotalTokens)

	if p.budget != nil && reply.TotalTokens > 0 {
		p.budget.Record(int64(reply.TotalTokens))
		remaining := metrics.LLMBudgetTokensRemaining
		remaining.WithLabelValues(p.provider, "daily").Set(float64(p.budget.RemainingDaily()))
		remaining.WithLabelValues(p.provider, "monthly").Set(float64(p.budget.RemainingMonthly()))
	}

	p.logger.Debug("LLM request completed",
		zap.String("provider", p.provider),
		zap.String("model", p.model),
		zap.Duration("duration", duration),
		zap.Int("history_turns", len(history)),
		zap.Int("prompt_tokens", reply.PromptTokens),
		zap.Int("total_tokens", reply.TotalTokens),
	)

	return reply, nil
}
