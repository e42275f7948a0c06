package studyplan

import "github.com/kailas-cloud/studyplan/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrEmptyMessage        = domain.ErrEmptyMessage
	ErrProviderError       = domain.ErrProviderError
	ErrEmptyReply          = domain.ErrEmptyReply
	ErrBackendUnavailable  = domain.ErrBackendUnavailable
	ErrSearchFailed        = domain.ErrSearchFailed
	ErrSessionStore        = domain.ErrSessionStore
	ErrTokenBudgetExceeded = domain.ErrTokenBudgetExceeded
)
