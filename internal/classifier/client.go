package classifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/requestdesk/intake-backend/internal/metrics"
)

const (
	DefaultModel   = "gpt-4"
	defaultTimeout = 30 * time.Second
)

var (
	// ErrNotConfigured is returned when no API key is set.
	ErrNotConfigured = errors.New("openai api key is not configured")
	ErrEmptyReply    = errors.New("model returned no content")
)

type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	// Timeout bounds a single chat completion.
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Prompt is one system + user chat completion.
type Prompt struct {
	Purpose     string
	System      string
	User        string
	Temperature float32
	MaxTokens   int
}

// Classifier wraps the chat completion API. With no key configured it only
// ever answers from the name-based fallback.
type Classifier struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

func New(cfg Config) *Classifier {
	c := &Classifier{
		model:   cfg.Model,
		timeout: cfg.Timeout,
	}
	if c.model == "" {
		c.model = DefaultModel
	}
	if c.timeout <= 0 {
		c.timeout = defaultTimeout
	}
	if cfg.APIKey == "" {
		slog.Warn("OPENAI_API_KEY not set, project classification uses name heuristics only")
		return c
	}

	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	if cfg.HTTPClient != nil {
		oc.HTTPClient = cfg.HTTPClient
	}
	c.client = openai.NewClientWithConfig(oc)
	return c
}

// Enabled reports whether an API key was configured.
func (c *Classifier) Enabled() bool { return c.client != nil }

// Model returns the chat model in use.
func (c *Classifier) Model() string { return c.model }

// Complete runs one chat completion and returns the trimmed reply.
func (c *Classifier) Complete(ctx context.Context, p Prompt) (string, error) {
	if c.client == nil {
		return "", ErrNotConfigured
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: p.System},
			{Role: openai.ChatMessageRoleUser, Content: p.User},
		},
		Temperature: p.Temperature,
		MaxTokens:   p.MaxTokens,
	}

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(callCtx, req)
	metrics.ObserveLLM(p.Purpose, err, time.Since(start).Seconds())
	if err != nil {
		return "", fmt.Errorf("chat completion (%s): %w", p.Purpose, err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyReply
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", ErrEmptyReply
	}
	slog.Debug("chat completion done",
		slog.String("purpose", p.Purpose),
		slog.String("finish_reason", string(resp.Choices[0].FinishReason)),
		slog.Int("total_tokens", resp.Usage.TotalTokens))
	return content, nil
}

// StatusOf extracts the HTTP status of a failed completion, or 0.
func StatusOf(err error) int {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}

// QuotaExceeded reports whether the account ran out of credit.
func QuotaExceeded(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if code, ok := apiErr.Code.(string); ok && code == "insufficient_quota" {
			return true
		}
		return apiErr.Type == "insufficient_quota"
	}
	return false
}
