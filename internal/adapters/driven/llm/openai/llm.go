// Package openai provides an LLM service adapter for the OpenAI chat
// completions API and compatible local servers such as LM Studio.
package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/ragguard/internal/adapters/driven/httpclient"
	"github.com/custodia-labs/ragguard/internal/core/ports/driven"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

// Default configuration values.
const (
	DefaultBaseURL    = "https://api.openai.com/v1"
	DefaultLLMModel   = "gpt-4o-mini"
	DefaultLLMTimeout = 120 * time.Second
)

// LLMConfig holds configuration for the OpenAI LLM service.
type LLMConfig struct {
	// APIKey is sent as a bearer token when set.
	APIKey string

	// BaseURL is the API base URL (default: https://api.openai.com/v1).
	BaseURL string

	// Model is the LLM model to use (default: gpt-4o-mini).
	Model string

	// Timeout bounds one attempt (default: 120s).
	Timeout time.Duration

	// Retry controls retries on rate limits and server errors.
	Retry httpclient.RetryPolicy
}

// LLMService answers over /chat/completions.
type LLMService struct {
	api   *httpclient.Client
	model string
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature"`
	Stop        []string  `json:"stop,omitempty"`
}

type completionResponse struct {
	Choices []struct {
		Message      message `json:"message"`
		FinishReason string  `json:"finish_reason"`
	} `json:"choices"`
	Error *apiError `json:"error,omitempty"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// NewLLMService creates a new OpenAI compatible LLM service.
func NewLLMService(cfg LLMConfig) *LLMService {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultLLMModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultLLMTimeout
	}

	return &LLMService{
		api: httpclient.New(httpclient.Config{
			Name:        "openai",
			BaseURL:     cfg.BaseURL,
			Timeout:     cfg.Timeout,
			BearerToken: cfg.APIKey,
			Retry:       cfg.Retry,
		}),
		model: cfg.Model,
	}
}

// Generate sends the prompt as a single user message after the optional
// system message and returns the first choice.
func (s *LLMService) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	msgs := make([]message, 0, 2)
	if opts.System != "" {
		msgs = append(msgs, message{Role: "system", Content: opts.System})
	}
	msgs = append(msgs, message{Role: "user", Content: prompt})

	resp, err := s.api.PostJSON(ctx, "/chat/completions", completionRequest{
		Model:       s.model,
		Messages:    msgs,
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
		Stop:        opts.StopWords,
	})
	if err != nil {
		return "", err
	}

	var out completionResponse
	if err := resp.Decode(&out); err != nil {
		return "", fmt.Errorf("openai: %w", err)
	}
	switch {
	case out.Error != nil:
		return "", fmt.Errorf("openai error: %s", out.Error.Message)
	case !resp.OK():
		return "", fmt.Errorf("openai error (status %d): %s", resp.StatusCode, resp.Text())
	case len(out.Choices) == 0:
		return "", errors.New("openai: no response choices returned")
	}
	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}

// ModelName returns the name of the LLM model being used.
func (s *LLMService) ModelName() string {
	return s.model
}

// Ping lists models, which checks the key without running inference.
func (s *LLMService) Ping(ctx context.Context) error {
	return s.api.Check(ctx, "/models")
}

// Close is a no-op.
func (s *LLMService) Close() error {
	return nil
}
