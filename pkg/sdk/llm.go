package studyplan

import (
	"context"
	"errors"
	"fmt"

	"github.com/kailas-cloud/studyplan/internal/domain"
	"github.com/kailas-cloud/studyplan/internal/domain/conversation"
	"github.com/kailas-cloud/studyplan/internal/domain/search/result"
)

// Role identifies who produced a turn.
type Role string

// Role constants.
const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Turn is one message of a session's history.
type Turn struct {
	Role Role
	Text string
}

// Reply carries the model text and token counts.
type Reply struct {
	Text         string
	PromptTokens int
	TotalTokens  int
}

// LLM produces the next model turn. history holds prior turns of the
// session, oldest first; prompt is the new user turn.
type LLM interface {
	Generate(ctx context.Context, history []Turn, prompt string) (Reply, error)
}

// SearchResult is one web search hit.
type SearchResult struct {
	Title   string
	URL     string
	Snippet string
}

// Searcher runs web searches. Results without a title or URL are dropped.
type Searcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]SearchResult, error)
}

// llmAdapter wraps public LLM to satisfy internal domain.LLM.
type llmAdapter struct {
	inner LLM
}

func (a *llmAdapter) Generate(
	ctx context.Context, history []conversation.Turn, prompt string,
) (domain.Reply, error) {
	turns := make([]Turn, len(history))
	for i, t := range history {
		turns[i] = Turn{Role: Role(t.Role()), Text: t.Text()}
	}
	r, err := a.inner.Generate(ctx, turns, prompt)
	if err != nil {
		return domain.Reply{}, fmt.Errorf("generate: %w: %w", domain.ErrProviderError, err)
	}
	return domain.Reply{
		Text:         r.Text,
		PromptTokens: r.PromptTokens,
		TotalTokens:  r.TotalTokens,
	}, nil
}

// searcherAdapter wraps public Searcher to satisfy the chat use case.
type searcherAdapter struct {
	inner Searcher
}

func (a *searcherAdapter) Search(ctx context.Context, query string, maxResults int) ([]result.Result, error) {
	hits, err := a.inner.Search(ctx, query, maxResults)
	if err != nil {
		return nil, fmt.Errorf("search: %w: %w", domain.ErrSearchFailed, err)
	}
	out := make([]result.Result, 0, len(hits))
	for _, h := range hits {
		r := result.New(h.Title, h.URL, h.Snippet)
		if r.Valid() {
			out = append(out, r)
		}
	}
	return out, nil
}

// errNoModel is the degraded reason when no model option was given.
var errNoModel = errors.New("studyplan: no model configured (use WithGemini, WithOpenAI or WithLLM)")
