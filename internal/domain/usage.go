package domain

import "context"

type tokenUsageKey struct{}

// TokenUsage collects language-model token usage for a single HTTP request.
// The handler puts a mutable pointer into the context before calling the service;
// the LLM wrapper writes after each call; the handler reads it for logs and headers.
type TokenUsage struct {
	TotalTokens int
	Calls       int
}

// NewContextWithUsage returns a context with a usage collector.
func NewContextWithUsage(ctx context.Context) (context.Context, *TokenUsage) {
	u := &TokenUsage{}
	return context.WithValue(ctx, tokenUsageKey{}, u), u
}

// UsageFromContext extracts the usage collector from context. Returns nil if not set.
func UsageFromContext(ctx context.Context) *TokenUsage {
	u, _ := ctx.Value(tokenUsageKey{}).(*TokenUsage)
	return u
}

// AddTokens records one model call and its tokens.
func (u *TokenUsage) AddTokens(n int) {
	if u != nil {
		u.TotalTokens += n
		u.Calls++
	}
}
