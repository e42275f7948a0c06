package domain

import (
	"context"

	"github.com/kailas-cloud/studyplan/internal/domain/conversation"
)

// LLM is the shared language-model contract between layers.
// history holds prior turns of the session; prompt is the new user turn.
type LLM interface {
	Generate(ctx context.Context, history []conversation.Turn, prompt string) (Reply, error)
}

// Reply carries the model text and token usage.
type Reply struct {
	Text         string
	PromptTokens int
	TotalTokens  int
}
