package llm

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/studyplan/internal/domain"
	"github.com/kailas-cloud/studyplan/internal/domain/conversation"
	"github.com/kailas-cloud/studyplan/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.RegisterChatMetrics()
	os.Exit(m.Run())
}

type mockLLM struct {
	reply   domain.Reply
	err     error
	calls   int
	history []conversation.Turn
	prompt  string
	waitFor time.Duration
}

func (m *mockLLM) Generate(ctx context.Context, history []conversation.Turn, prompt string) (domain.Reply, error) {
	m.calls++
	m.history = history
	m.prompt = prompt
	if m.waitFor > 0 {
		select {
		case <-ctx.Done():
			return domain.Reply{}, ctx.Err()
		case <-time.After(m.waitFor):
		}
	}
	return m.reply, m.err
}

func TestInstrumentedLLM_Success(t *testing.T) {
	inner := &mockLLM{reply: domain.Reply{Text: "hi", PromptTokens: 4, TotalTokens: 9}}
	p := NewInstrumentedLLM(inner, "test", "test-model", 0, nil, zap.NewNop())

	history := []conversation.Turn{conversation.User("a"), conversation.Model("b")}
	reply, err := p.Generate(context.Background(), history, "c")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply.Text != "hi" {
		t.Errorf("Text = %q", reply.Text)
	}
	if len(inner.history) != 2 || inner.prompt != "c" {
		t.Errorf("inner received history=%d prompt=%q", len(inner.history), inner.prompt)
	}
}

func TestInstrumentedLLM_RecordsUsageInContext(t *testing.T) {
	inner := &mockLLM{reply: domain.Reply{Text: "ok", TotalTokens: 25}}
	p := NewInstrumentedLLM(inner, "test", "test-model", 0, nil, zap.NewNop())

	ctx, usage := domain.NewContextWithUsage(context.Background())
	if _, err := p.Generate(ctx, nil, "x"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if usage.TotalTokens != 25 || usage.Calls != 1 {
		t.Errorf("usage = %+v, want 25 tokens in 1 call", *usage)
	}
}

func TestInstrumentedLLM_Error(t *testing.T) {
	inner := &mockLLM{err: domain.ErrProviderError}
	p := NewInstrumentedLLM(inner, "test", "test-model", 0, nil, zap.NewNop())

	ctx, usage := domain.NewContextWithUsage(context.Background())
	_, err := p.Generate(ctx, nil, "x")
	if !errors.Is(err, domain.ErrProviderError) {
		t.Fatalf("expected ErrProviderError, got %v", err)
	}
	if usage.Calls != 0 {
		t.Errorf("failed call must not be counted, got %d", usage.Calls)
	}
}

func TestInstrumentedLLM_BudgetRejects(t *testing.T) {
	inner := &mockLLM{reply: domain.Reply{Text: "ok", TotalTokens: 10}}
	bt := NewBudgetTracker("test-budget", 10, 0, BudgetActionReject, zap.NewNop())
	p := NewInstrumentedLLM(inner, "test-budget", "test-model", 0, bt, zap.NewNop())

	if _, err := p.Generate(context.Background(), nil, "x"); err != nil {
		t.Fatalf("first call: %v", err)
	}
	if bt.DailyUsed() != 10 {
		t.Errorf("expected 10 tokens recorded, got %d", bt.DailyUsed())
	}

	_, err := p.Generate(context.Background(), nil, "x")
	if !errors.Is(err, domain.ErrTokenBudgetExceeded) {
		t.Fatalf("expected ErrTokenBudgetExceeded, got %v", err)
	}
	if inner.calls != 1 {
		t.Errorf("backend must not be called over budget, calls=%d", inner.calls)
	}
}

func TestInstrumentedLLM_Timeout(t *testing.T) {
	inner := &mockLLM{reply: domain.Reply{Text: "late"}, waitFor: time.Second}
	p := NewInstrumentedLLM(inner, "test", "test-model", 20*time.Millisecond, nil, zap.NewNop())

	_, err := p.Generate(context.Background(), nil, "x")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}
