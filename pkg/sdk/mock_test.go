package studyplan

import (
	"context"
	"sync"
)

// --- chatUseCase mock ---

type mockChatUC struct {
	handleFn    func(ctx context.Context, sessionID, message string) (string, error)
	studyPlanFn func(ctx context.Context, sessionID, topic string) string
	responseFn  func(ctx context.Context, sessionID, text string) string
	resetFn     func(ctx context.Context, sessionID string) error
}

func (m *mockChatUC) Handle(ctx context.Context, sessionID, message string) (string, error) {
	return m.handleFn(ctx, sessionID, message)
}

func (m *mockChatUC) GenerateStudyPlan(ctx context.Context, sessionID, topic string) string {
	return m.studyPlanFn(ctx, sessionID, topic)
}

func (m *mockChatUC) GenerateResponse(ctx context.Context, sessionID, text string) string {
	return m.responseFn(ctx, sessionID, text)
}

func (m *mockChatUC) Reset(ctx context.Context, sessionID string) error {
	return m.resetFn(ctx, sessionID)
}

// --- public LLM mock ---

type llmCall struct {
	history []Turn
	prompt  string
}

type mockLLM struct {
	mu    sync.Mutex
	calls []llmCall
	fn    func(ctx context.Context, history []Turn, prompt string) (Reply, error)
}

func (m *mockLLM) Generate(ctx context.Context, history []Turn, prompt string) (Reply, error) {
	m.mu.Lock()
	m.calls = append(m.calls, llmCall{history: append([]Turn(nil), history...), prompt: prompt})
	m.mu.Unlock()
	if m.fn != nil {
		return m.fn(ctx, history, prompt)
	}
	return Reply{Text: "model says hi", PromptTokens: 7, TotalTokens: 12}, nil
}

func (m *mockLLM) lastCall() llmCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[len(m.calls)-1]
}

// --- public Searcher mock ---

type mockSearcher struct {
	fn func(ctx context.Context, query string, maxResults int) ([]SearchResult, error)
}

func (m *mockSearcher) Search(ctx context.Context, query string, maxResults int) ([]SearchResult, error) {
	return m.fn(ctx, query, maxResults)
}
