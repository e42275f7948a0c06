// Package gemini is a language-model backend on the Google Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/kailas-cloud/studyplan/internal/domain"
	"github.com/kailas-cloud/studyplan/internal/domain/conversation"
	"github.com/kailas-cloud/studyplan/internal/metrics"
)

const provider = "gemini"

// Compile-time check: Chat implements domain.LLM.
var _ domain.LLM = (*Chat)(nil)

// Config holds the Gemini settings.
type Config struct {
	APIKey      string
	BaseURL     string // empty = Google default
	Model       string
	Temperature float32 // 0 = model default
	Logger      *zap.Logger
}

// Chat sends a session's turns to Gemini and returns the next model turn.
type Chat struct {
	client      *genai.Client
	model       string
	temperature float32
	logger      *zap.Logger
}

// NewChat creates a Gemini backend. No network call is made.
func NewChat(ctx context.Context, cfg *Config) (*Chat, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini: api key is required")
	}
	if cfg.Model == "" {
		return nil, errors.New("gemini: model is required")
	}

	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Chat{client: client, model: cfg.Model, temperature: cfg.Temperature, logger: logger}, nil
}

// Generate implements domain.LLM. A single attempt is made; failures are not retried.
func (c *Chat) Generate(ctx context.Context, history []conversation.Turn, prompt string) (domain.Reply, error) {
	var gcc *genai.GenerateContentConfig
	if c.temperature > 0 {
		gcc = &genai.GenerateContentConfig{Temperature: genai.Ptr(c.temperature)}
	}

	start := time.Now()
	resp, err := c.client.Models.GenerateContent(ctx, c.model, toContents(history, prompt), gcc)
	duration := time.Since(start)

	if err != nil {
		metrics.ObserveLLMError(provider, c.model, "api_error")
		return domain.Reply{}, fmt.Errorf("gemini generate: %w: %w", domain.ErrProviderError, err)
	}

	text := replyText(resp)
	if strings.TrimSpace(text) == "" {
		metrics.ObserveLLMError(provider, c.model, "empty_response")
		return domain.Reply{}, fmt.Errorf("gemini generate: %w", domain.ErrEmptyReply)
	}

	var promptTokens, totalTokens int
	if resp.UsageMetadata != nil {
		promptTokens = int(resp.UsageMetadata.PromptTokenCount)
		totalTokens = int(resp.UsageMetadata.TotalTokenCount)
	}
	metrics.ObserveLLM(provider, c.model, duration.Seconds(), promptTokens, totalTokens)
	c.logger.Debug("gemini reply",
		zap.String("model", c.model),
		zap.Duration("duration", duration),
		zap.Int("total_tokens", totalTokens),
	)

	return domain.Reply{Text: text, PromptTokens: promptTokens, TotalTokens: totalTokens}, nil
}

func toContents(history []conversation.Turn, prompt string) []*genai.Content {
	contents := make([]*genai.Content, 0, len(history)+1)
	for _, t := range history {
		role := "user"
		if t.Role() == conversation.RoleModel {
			role = "model"
		}
		contents = append(contents, &genai.Content{Role: role, Parts: []*genai.Part{{Text: t.Text()}}})
	}
	return append(contents, &genai.Content{Role: "user", Parts: []*genai.Part{{Text: prompt}}})
}

// replyText joins the text parts of the first candidate.
func replyText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if p != nil && !p.Thought {
			sb.WriteString(p.Text)
		}
	}
	return sb.String()
}
