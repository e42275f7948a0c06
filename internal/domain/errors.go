package domain

import "errors"

var (
	// ErrProviderError signals a language-model provider failure.
	ErrProviderError = errors.New("llm provider error")
	// ErrEmptyReply signals that the provider answered without any text.
	ErrEmptyReply = errors.New("llm returned an empty reply")
	// ErrBackendUnavailable signals that the language-model backend was never configured.
	ErrBackendUnavailable = errors.New("llm backend unavailable")
	// ErrSearchFailed signals a web search failure.
	ErrSearchFailed = errors.New("web search failed")
	// ErrSessionStore signals a failure loading or saving conversation history.
	ErrSessionStore = errors.New("session store error")
	// ErrTokenBudgetExceeded signals that the configured LLM token budget is spent.
	ErrTokenBudgetExceeded = errors.New("llm token budget exceeded")
	// ErrEmptyMessage signals a blank user message.
	ErrEmptyMessage = errors.New("empty message")
)
