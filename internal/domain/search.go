package domain

import (
	"context"

	"github.com/kailas-cloud/studyplan/internal/domain/search/result"
)

// DefaultSearchResults caps how many web results are folded into a prompt.
const DefaultSearchResults = 6

// Searcher is the web-search collaborator: query in, ranked snippets out.
type Searcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]result.Result, error)
}
