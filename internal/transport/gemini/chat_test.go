package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/studyplan/internal/domain"
	"github.com/kailas-cloud/studyplan/internal/domain/conversation"
	"github.com/kailas-cloud/studyplan/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.RegisterChatMetrics()
	os.Exit(m.Run())
}

type generateRequest struct {
	Contents []struct {
		Role  string `json:"role"`
		Parts []struct {
			Text string `json:"text"`
		} `json:"parts"`
	} `json:"contents"`
}

func geminiServer(t *testing.T, status int, body any, got *generateRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "models/test-model:generateContent") {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got != nil {
			if err := json.NewDecoder(r.Body).Decode(got); err != nil {
				t.Errorf("decode request: %v", err)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}))
}

func candidate(parts ...string) map[string]any {
	ps := make([]map[string]any, len(parts))
	for i, p := range parts {
		ps[i] = map[string]any{"text": p}
	}
	return map[string]any{
		"candidates": []map[string]any{{
			"content":      map[string]any{"role": "model", "parts": ps},
			"finishReason": "STOP",
		}},
		"usageMetadata": map[string]any{
			"promptTokenCount":     7,
			"candidatesTokenCount": 5,
			"totalTokenCount":      12,
		},
	}
}

func newTestChat(t *testing.T, url string) *Chat {
	t.Helper()
	c, err := NewChat(context.Background(), &Config{
		APIKey:  "test-key",
		BaseURL: url,
		Model:   "test-model",
		Logger:  zap.NewNop(),
	})
	if err != nil {
		t.Fatalf("NewChat: %v", err)
	}
	return c
}

func TestChat_Generate(t *testing.T) {
	var req generateRequest
	srv := geminiServer(t, http.StatusOK, candidate("Hello, ", "student!"), &req)
	defer srv.Close()

	history := []conversation.Turn{conversation.User("hi"), conversation.Model("hey")}
	reply, err := newTestChat(t, srv.URL).Generate(context.Background(), history, "teach me")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if reply.Text != "Hello, student!" {
		t.Errorf("Text = %q", reply.Text)
	}
	if reply.PromptTokens != 7 || reply.TotalTokens != 12 {
		t.Errorf("usage = %d/%d, want 7/12", reply.PromptTokens, reply.TotalTokens)
	}

	wantRoles := []string{"user", "model", "user"}
	if len(req.Contents) != len(wantRoles) {
		t.Fatalf("expected %d contents, got %d", len(wantRoles), len(req.Contents))
	}
	for i, role := range wantRoles {
		if req.Contents[i].Role != role {
			t.Errorf("content %d role = %q, want %q", i, req.Contents[i].Role, role)
		}
	}
	if req.Contents[2].Parts[0].Text != "teach me" {
		t.Errorf("prompt = %q", req.Contents[2].Parts[0].Text)
	}
}

func TestChat_EmptyCandidates(t *testing.T) {
	srv := geminiServer(t, http.StatusOK, map[string]any{"candidates": []any{}}, nil)
	defer srv.Close()

	_, err := newTestChat(t, srv.URL).Generate(context.Background(), nil, "x")
	if !errors.Is(err, domain.ErrEmptyReply) {
		t.Errorf("expected ErrEmptyReply, got %v", err)
	}
}

func TestChat_APIError(t *testing.T) {
	body := map[string]any{"error": map[string]any{"code": 500, "message": "internal", "status": "INTERNAL"}}
	srv := geminiServer(t, http.StatusInternalServerError, body, nil)
	defer srv.Close()

	_, err := newTestChat(t, srv.URL).Generate(context.Background(), nil, "x")
	if !errors.Is(err, domain.ErrProviderError) {
		t.Errorf("expected ErrProviderError, got %v", err)
	}
}

func TestNewChat_Validation(t *testing.T) {
	if _, err := NewChat(context.Background(), &Config{Model: "m"}); err == nil {
		t.Error("expected error without api key")
	}
	if _, err := NewChat(context.Background(), &Config{APIKey: "k"}); err == nil {
		t.Error("expected error without model")
	}
}
