package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/studyplan/internal/domain"
	"github.com/kailas-cloud/studyplan/internal/domain/conversation"
	"github.com/kailas-cloud/studyplan/internal/metrics"
)

// Compile-time check: Chat implements domain.LLM.
var _ domain.LLM = (*Chat)(nil)

// Chat is a language-model backend using the OpenAI-compatible chat completions API.
type Chat struct {
	client      *openai.Client
	model       string
	temperature float32
	user        string
	provider    string
	logger      *zap.Logger
}

// Config holds the chat provider settings.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	User        string
	Provider    string
	Logger      *zap.Logger
}

// NewChat creates an OpenAI-compatible chat backend.
func NewChat(cfg *Config) (*Chat, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai: api key is required")
	}
	if cfg.Model == "" {
		return nil, errors.New("openai: model is required")
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	provider := cfg.Provider
	if provider == "" {
		provider = "openai"
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Chat{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		user:        cfg.User,
		provider:    provider,
		logger:      logger,
	}, nil
}

// Generate implements domain.LLM. A single attempt is made; failures are not retried.
func (c *Chat) Generate(ctx context.Context, history []conversation.Turn, prompt string) (domain.Reply, error) {
	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    toMessages(history, prompt),
		Temperature: c.temperature,
		User:        c.user,
	}

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, req)
	duration := time.Since(start)

	if err != nil {
		metrics.ObserveLLMError(c.provider, c.model, "api_error")
		return domain.Reply{}, parseAPIError(err)
	}

	text := ""
	if len(resp.Choices) > 0 {
		text = resp.Choices[0].Message.Content
	}
	if strings.TrimSpace(text) == "" {
		metrics.ObserveLLMError(c.provider, c.model, "empty_response")
		return domain.Reply{}, fmt.Errorf("chat completion: %w", domain.ErrEmptyReply)
	}

	metrics.ObserveLLM(c.provider, c.model, duration.Seconds(), resp.Usage.PromptTokens, resp.Usage.TotalTokens)
	c.logger.Debug("chat completion",
		zap.String("model", c.model),
		zap.Duration("duration", duration),
		zap.Int("total_tokens", resp.Usage.TotalTokens),
	)

	return domain.Reply{
		Text:         text,
		PromptTokens: resp.Usage.PromptTokens,
		TotalTokens:  resp.Usage.TotalTokens,
	}, nil
}

// HealthCheck verifies API availability via ListModels (free endpoint).
func (c *Chat) HealthCheck(ctx context.Context) error {
	if _, err := c.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

func toMessages(history []conversation.Turn, prompt string) []openai.ChatCompletionMessage {
	msgs := make([]openai.ChatCompletionMessage, 0, len(history)+1)
	for _, t := range history {
		role := openai.ChatMessageRoleUser
		if t.Role() == conversation.RoleModel {
			role = openai.ChatMessageRoleAssistant
		}
		msgs = append(msgs, openai.ChatCompletionMessage{Role: role, Content: t.Text()})
	}
	return append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: prompt})
}

// parseAPIError extracts a human-readable error from the API response.
// All errors are wrapped with domain.ErrProviderError.
func parseAPIError(err error) error {
	wrap := domain.ErrProviderError

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		if detail := extractDetail(reqErr.Body); detail != "" {
			return fmt.Errorf("chat API error %d: %s: %w", reqErr.HTTPStatusCode, detail, wrap)
		}
		return fmt.Errorf("chat API error %d: %s: %w", reqErr.HTTPStatusCode, string(reqErr.Body), wrap)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("chat API error %d: %s: %w", apiErr.HTTPStatusCode, apiErr.Message, wrap)
	}

	return fmt.Errorf("chat request failed: %w: %w", wrap, err)
}

// extractDetail extracts the "detail" field from a JSON error body.
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return ""
}
