package chat

import (
	"context"

	"github.com/kailas-cloud/studyplan/internal/domain/conversation"
	"github.com/kailas-cloud/studyplan/internal/domain/search/result"
)

// History stores the turns of each session.
type History interface {
	Load(ctx context.Context, sessionID string) ([]conversation.Turn, error)
	Append(ctx context.Context, sessionID string, turns ...conversation.Turn) error
	Delete(ctx context.Context, sessionID string) error
}

// Searcher runs web searches.
type Searcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]result.Result, error)
}

// Sanitizer cleans model-generated HTML before it reaches the page.
type Sanitizer interface {
	Sanitize(fragment string) string
}
