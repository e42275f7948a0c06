// Package chat routes user messages to study-plan generation, plain chat or
// web-search answers, keeping per-session history.
package chat

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/studyplan/internal/domain"
	"github.com/kailas-cloud/studyplan/internal/domain/backend"
	"github.com/kailas-cloud/studyplan/internal/domain/conversation"
	"github.com/kailas-cloud/studyplan/internal/domain/intent"
	"github.com/kailas-cloud/studyplan/internal/domain/search/result"
	"github.com/kailas-cloud/studyplan/internal/domain/studyplan"
	logpkg "github.com/kailas-cloud/studyplan/internal/logger"
	"github.com/kailas-cloud/studyplan/internal/metrics"
)

// Options tunes the service. Zero values select defaults.
type Options struct {
	MaxSearchResults int       // default domain.DefaultSearchResults
	Sanitizer        Sanitizer // nil = extracted tables are returned as-is
}

// Service is the conversation client. Calls on one session are serialized;
// different sessions run in parallel.
type Service struct {
	backend    backend.Backend
	history    History
	searcher   Searcher
	sanitizer  Sanitizer
	maxResults int
	locks      *sessionLocks
	logger     *zap.Logger
}

// New creates a chat service. searcher may be nil to disable web search.
func New(b backend.Backend, history History, searcher Searcher, opts Options, logger *zap.Logger) *Service {
	maxResults := opts.MaxSearchResults
	if maxResults <= 0 {
		maxResults = domain.DefaultSearchResults
	}
	return &Service{
		backend:    b,
		history:    history,
		searcher:   searcher,
		sanitizer:  opts.Sanitizer,
		maxResults: maxResults,
		locks:      newSessionLocks(),
		logger:     logger,
	}
}

// Backend returns the backend state the service was built with.
func (s *Service) Backend() backend.Backend { return s.backend }

// Handle classifies a message and dispatches it. The only error is
// domain.ErrEmptyMessage for blank input; backend trouble becomes a literal reply.
func (s *Service) Handle(ctx context.Context, sessionID, message string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", domain.ErrEmptyMessage
	}

	in := intent.Classify(message)
	if in.Kind() == intent.StudyPlan && in.Topic() != "" {
		metrics.ChatMessagesTotal.WithLabelValues(string(intent.StudyPlan)).Inc()
		return s.GenerateStudyPlan(ctx, sessionID, in.Topic()), nil
	}

	kind := string(intent.Chat)
	if _, ok := searchQuery(message); ok {
		kind = "search"
	}
	metrics.ChatMessagesTotal.WithLabelValues(kind).Inc()
	return s.GenerateResponse(ctx, sessionID, message), nil
}

// GenerateStudyPlan asks the model for an HTML study-plan table about topic.
// Without a working backend, or on any backend error, the fixed fallback table is returned.
func (s *Service) GenerateStudyPlan(ctx context.Context, sessionID, topic string) string {
	unlock := s.locks.lock(sessionID)
	defer unlock()

	if s.backend.State() == backend.StateDegraded {
		metrics.ChatFallbacksTotal.WithLabelValues("study_plan_degraded").Inc()
		return studyplan.FallbackTable
	}

	reply, err := s.generate(ctx, sessionID, studyplan.Prompt(topic))
	if err != nil {
		s.log(ctx).Warn("study plan generation failed, serving fallback table",
			zap.String("session_id", sessionID),
			zap.String("topic", topic),
			zap.Error(err),
		)
		metrics.ChatFallbacksTotal.WithLabelValues("study_plan_error").Inc()
		return studyplan.FallbackTable
	}

	table, ok := studyplan.ExtractTable(reply)
	if !ok {
		return table
	}
	if s.sanitizer != nil {
		table = s.sanitizer.Sanitize(table)
	}
	return table
}

// GenerateResponse answers a plain chat message, or a web-search request when
// text starts with "search:" or "/search ".
func (s *Service) GenerateResponse(ctx context.Context, sessionID, text string) string {
	unlock := s.locks.lock(sessionID)
	defer unlock()

	if q, ok := searchQuery(text); ok {
		return s.answerFromSearch(ctx, sessionID, q)
	}

	if s.backend.State() == backend.StateDegraded {
		metrics.ChatFallbacksTotal.WithLabelValues("chat_degraded").Inc()
		return UnavailableReply
	}

	reply, err := s.generate(ctx, sessionID, chatPrompt(text))
	if err != nil {
		s.log(ctx).Warn("chat generation failed",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
		metrics.ChatFallbacksTotal.WithLabelValues("chat_error").Inc()
		return ErrorReply
	}
	return reply
}

// Reset forgets a session's history.
func (s *Service) Reset(ctx context.Context, sessionID string) error {
	unlock := s.locks.lock(sessionID)
	defer unlock()

	if err := s.history.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("reset session: %w", err)
	}
	return nil
}

func (s *Service) answerFromSearch(ctx context.Context, sessionID, query string) string {
	results := s.search(ctx, query)
	if len(results) == 0 {
		metrics.ChatFallbacksTotal.WithLabelValues("search_empty").Inc()
		return NoSearchResultsReply
	}

	reply, err := s.generate(ctx, sessionID, searchPrompt(query, results))
	if err != nil {
		s.log(ctx).Warn("search answer generation failed",
			zap.String("session_id", sessionID),
			zap.String("query", query),
			zap.Error(err),
		)
		metrics.ChatFallbacksTotal.WithLabelValues("search_error").Inc()
		return ErrorReply
	}
	return reply
}

func (s *Service) log(ctx context.Context) *zap.Logger {
	return logpkg.FromContextOr(ctx, s.logger)
}

// search never fails: errors are logged and count as zero results.
func (s *Service) search(ctx context.Context, query string) []result.Result {
	if s.searcher == nil {
		return nil
	}
	results, err := s.searcher.Search(ctx, query, s.maxResults)
	if err != nil {
		s.log(ctx).Warn("web search failed", zap.String("query", query), zap.Error(err))
		return nil
	}
	if len(results) > s.maxResults {
		results = results[:s.maxResults]
	}
	return results
}

// generate sends prompt with the session history and appends the exchange on success.
// History read or write failures are logged; the conversation continues without them.
func (s *Service) generate(ctx context.Context, sessionID, prompt string) (string, error) {
	llm, ok := s.backend.LLM()
	if !ok {
		return "", fmt.Errorf("%w: %w", domain.ErrBackendUnavailable, s.backend.Reason())
	}

	history, err := s.history.Load(ctx, sessionID)
	if err != nil {
		s.log(ctx).Warn("loading session history failed", zap.String("session_id", sessionID), zap.Error(err))
		history = nil
	}

	reply, err := llm.Generate(ctx, history, prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(reply.Text) == "" {
		return "", domain.ErrEmptyReply
	}

	if err := s.history.Append(ctx, sessionID, conversation.User(prompt), conversation.Model(reply.Text)); err != nil {
		s.log(ctx).Warn("saving session history failed", zap.String("session_id", sessionID), zap.Error(err))
	}
	return reply.Text, nil
}
