package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/studyplan/internal/domain"
	healthuc "github.com/kailas-cloud/studyplan/internal/usecase/health"
)

type mockChat struct {
	handleFn func(ctx context.Context, sessionID, message string) (string, error)
	resetFn  func(ctx context.Context, sessionID string) error

	lastSession string
	lastMessage string
}

func (m *mockChat) Handle(ctx context.Context, sessionID, message string) (string, error) {
	m.lastSession = sessionID
	m.lastMessage = message
	if m.handleFn != nil {
		return m.handleFn(ctx, sessionID, message)
	}
	return "echo: " + message, nil
}

func (m *mockChat) Reset(ctx context.Context, sessionID string) error {
	m.lastSession = sessionID
	if m.resetFn != nil {
		return m.resetFn(ctx, sessionID)
	}
	return nil
}

type mockHealth struct {
	report healthuc.Report
}

func (m *mockHealth) Check(_ context.Context) healthuc.Report { return m.report }

func newTestRouter(chat *mockChat, health *mockHealth) http.Handler {
	if health == nil {
		health = &mockHealth{report: healthuc.Report{
			Status: healthuc.Healthy,
			Checks: map[string]healthuc.CheckResult{"database": healthuc.CheckOK, "llm": healthuc.CheckOK},
		}}
	}
	s := NewServer(chat, health, zap.NewNop())
	return NewRouter(s, RouterConfig{}, zap.NewNop())
}

func postChat(t *testing.T, h http.Handler, body string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var resp errorResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return resp.Error
}

func TestChat_OK(t *testing.T) {
	chat := &mockChat{}
	h := newTestRouter(chat, nil)

	rr := postChat(t, h, `{"message":"hello","session_id":"abc"}`, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type: got %q", ct)
	}

	var resp chatResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Response != "echo: hello" {
		t.Errorf("response: got %q", resp.Response)
	}
	if chat.lastMessage != "hello" {
		t.Errorf("message passed: got %q", chat.lastMessage)
	}
	if got := rr.Header().Get(SessionHeader); got != "abc" {
		t.Errorf("session header: got %q, want abc", got)
	}
}

func TestChat_BadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing message", `{}`},
		{"empty message", `{"message":""}`},
		{"blank message", `{"message":"   \n\t"}`},
		{"null message", `{"message":null}`},
		{"not json", `hello`},
		{"empty body", ``},
		{"wrong type", `{"message":42}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chat := &mockChat{handleFn: func(context.Context, string, string) (string, error) {
				t.Fatal("service must not be called")
				return "", nil
			}}
			rr := postChat(t, newTestRouter(chat, nil), tt.body, nil)

			if rr.Code != http.StatusBadRequest {
				t.Fatalf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
			}
			if msg := decodeError(t, rr); msg != "No message provided" {
				t.Errorf("error: got %q", msg)
			}
		})
	}
}

func TestChat_SessionResolution(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		header string
		want   string
	}{
		{"body wins", `{"message":"hi","session_id":"from-body"}`, "from-header", "from-body"},
		{"header fallback", `{"message":"hi"}`, "from-header", "from-header"},
		{"malformed body falls to header", `{"message":"hi","session_id":"a b"}`, "from-header", "from-header"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chat := &mockChat{}
			rr := postChat(t, newTestRouter(chat, nil), tt.body, map[string]string{SessionHeader: tt.header})

			if rr.Code != http.StatusOK {
				t.Fatalf("status: got %d", rr.Code)
			}
			if chat.lastSession != tt.want {
				t.Errorf("session: got %q, want %q", chat.lastSession, tt.want)
			}
			if got := rr.Header().Get(SessionHeader); got != tt.want {
				t.Errorf("header: got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestChat_GeneratesSessionID(t *testing.T) {
	chat := &mockChat{}
	h := newTestRouter(chat, nil)

	first := postChat(t, h, `{"message":"hi"}`, nil)
	second := postChat(t, h, `{"message":"hi"}`, nil)

	a := first.Header().Get(SessionHeader)
	b := second.Header().Get(SessionHeader)
	if a == "" || b == "" {
		t.Fatalf("expected generated session ids, got %q and %q", a, b)
	}
	if a == b {
		t.Errorf("generated ids should differ: %q", a)
	}
	if !sessionIDPattern.MatchString(a) {
		t.Errorf("generated id %q does not match pattern", a)
	}
}

func TestChat_TokensHeader(t *testing.T) {
	chat := &mockChat{handleFn: func(ctx context.Context, _, _ string) (string, error) {
		domain.UsageFromContext(ctx).AddTokens(120)
		return "ok", nil
	}}
	rr := postChat(t, newTestRouter(chat, nil), `{"message":"hi"}`, nil)

	if got := rr.Header().Get(tokensHeader); got != "120" {
		t.Errorf("tokens header: got %q, want 120", got)
	}
}

func TestChat_NoTokensHeaderWithoutCalls(t *testing.T) {
	rr := postChat(t, newTestRouter(&mockChat{}, nil), `{"message":"hi"}`, nil)

	if got := rr.Header().Get(tokensHeader); got != "" {
		t.Errorf("tokens header should be absent, got %q", got)
	}
}

func TestChat_DomainErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"empty message", domain.ErrEmptyMessage, http.StatusBadRequest, "No message provided"},
		{"session store", fmt.Errorf("load: %w", domain.ErrSessionStore), http.StatusServiceUnavailable, "Session store unavailable"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "Error generating response"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chat := &mockChat{handleFn: func(context.Context, string, string) (string, error) {
				return "", tt.err
			}}
			rr := postChat(t, newTestRouter(chat, nil), `{"message":"hi"}`, nil)

			if rr.Code != tt.wantStatus {
				t.Fatalf("status: got %d, want %d", rr.Code, tt.wantStatus)
			}
			if msg := decodeError(t, rr); msg != tt.wantMsg {
				t.Errorf("error: got %q, want %q", msg, tt.wantMsg)
			}
		})
	}
}

func TestChat_PanicRecovered(t *testing.T) {
	chat := &mockChat{handleFn: func(context.Context, string, string) (string, error) {
		panic("kaboom")
	}}
	rr := postChat(t, newTestRouter(chat, nil), `{"message":"hi"}`, nil)

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusInternalServerError)
	}
	if msg := decodeError(t, rr); msg != "Error generating response" {
		t.Errorf("error: got %q", msg)
	}
}

func TestChat_MethodNotAllowed(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/chat", http.NoBody)
	rr := httptest.NewRecorder()
	newTestRouter(&mockChat{}, nil).ServeHTTP(rr, req)

	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusMethodNotAllowed)
	}
}

func TestResetSession(t *testing.T) {
	chat := &mockChat{}
	h := newTestRouter(chat, nil)

	req := httptest.NewRequest(http.MethodDelete, "/api/sessions/abc-123", http.NoBody)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusNoContent)
	}
	if chat.lastSession != "abc-123" {
		t.Errorf("reset session: got %q", chat.lastSession)
	}
}

func TestResetSession_InvalidID(t *testing.T) {
	chat := &mockChat{resetFn: func(context.Context, string) error {
		t.Fatal("service must not be called")
		return nil
	}}

	req := httptest.NewRequest(http.MethodDelete, "/api/sessions/bad.id", http.NoBody)
	rr := httptest.NewRecorder()
	newTestRouter(chat, nil).ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestResetSession_StoreError(t *testing.T) {
	chat := &mockChat{resetFn: func(context.Context, string) error {
		return fmt.Errorf("delete: %w", domain.ErrSessionStore)
	}}

	req := httptest.NewRequest(http.MethodDelete, "/api/sessions/abc", http.NoBody)
	rr := httptest.NewRecorder()
	newTestRouter(chat, nil).ServeHTTP(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusServiceUnavailable)
	}
}

func TestIndex(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	rr := httptest.NewRecorder()
	newTestRouter(&mockChat{}, nil).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("content type: got %q", ct)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "<html") || !strings.Contains(body, "/api/chat") {
		t.Error("page should be the chat interface")
	}
}

func TestHealthCheck(t *testing.T) {
	tests := []struct {
		name       string
		report     healthuc.Report
		wantStatus int
		wantBody   string
	}{
		{
			name: "healthy",
			report: healthuc.Report{
				Status: healthuc.Healthy,
				Checks: map[string]healthuc.CheckResult{"database": healthuc.CheckOK, "llm": healthuc.CheckOK},
			},
			wantStatus: http.StatusOK,
			wantBody:   "ok",
		},
		{
			name: "degraded",
			report: healthuc.Report{
				Status: healthuc.Degraded,
				Checks: map[string]healthuc.CheckResult{"database": healthuc.CheckOK, "llm": healthuc.CheckError},
			},
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   "degraded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/health", http.NoBody)
			rr := httptest.NewRecorder()
			newTestRouter(&mockChat{}, &mockHealth{report: tt.report}).ServeHTTP(rr, req)

			if rr.Code != tt.wantStatus {
				t.Fatalf("status: got %d, want %d", rr.Code, tt.wantStatus)
			}
			var resp healthResponse
			if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Status != tt.wantBody {
				t.Errorf("status body: got %q, want %q", resp.Status, tt.wantBody)
			}
			if len(resp.Checks) != 2 {
				t.Errorf("checks: got %v", resp.Checks)
			}
		})
	}
}

func TestNotFound_JSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/nope", http.NoBody)
	rr := httptest.NewRecorder()
	newTestRouter(&mockChat{}, nil).ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status: got %d", rr.Code)
	}
	if msg := decodeError(t, rr); msg != "Not found" {
		t.Errorf("error: got %q", msg)
	}
}

func TestRouter_AuthEnabled(t *testing.T) {
	s := NewServer(&mockChat{}, &mockHealth{report: healthuc.Report{Status: healthuc.Healthy}}, zap.NewNop())
	h := NewRouter(s, RouterConfig{APIKeys: []string{"secret"}}, zap.NewNop())

	rr := postChat(t, h, `{"message":"hi"}`, nil)
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("no token: got %d, want %d", rr.Code, http.StatusUnauthorized)
	}

	rr = postChat(t, h, `{"message":"hi"}`, map[string]string{"Authorization": "Bearer secret"})
	if rr.Code != http.StatusOK {
		t.Errorf("with token: got %d, want %d", rr.Code, http.StatusOK)
	}

	req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	page := httptest.NewRecorder()
	h.ServeHTTP(page, req)
	if page.Code != http.StatusOK {
		t.Errorf("index stays public: got %d", page.Code)
	}
}
