// Package ollama provides an LLM service adapter using Ollama.
package ollama

import (
	"context"
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
	DefaultBaseURL    = "http://localhost:11434"
	DefaultLLMModel   = "llama3.2"
	DefaultLLMTimeout = 120 * time.Second
)

// LLMConfig holds configuration for the Ollama LLM service.
type LLMConfig struct {
	// BaseURL is the Ollama API base URL (default: http://localhost:11434).
	BaseURL string

	// Model is the LLM model to use (default: llama3.2).
	Model string

	// Timeout bounds one attempt (default: 120s).
	Timeout time.Duration

	// Retry controls retries of generation calls while the model loads.
	Retry httpclient.RetryPolicy
}

// LLMService answers over /api/chat with streaming off.
type LLMService struct {
	api   *httpclient.Client
	model string
}

type chatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string     `json:"model"`
	Messages []chatTurn `json:"messages"`
	Stream   bool       `json:"stream"`
	Options  sampling   `json:"options"`
}

// sampling is the subset of Ollama model options a generation call sets.
type sampling struct {
	NumPredict  int      `json:"num_predict,omitempty"`
	Temperature float64  `json:"temperature"`
	Stop        []string `json:"stop,omitempty"`
}

type chatReply struct {
	Message chatTurn `json:"message"`
	Error   string   `json:"error,omitempty"`
}

// NewLLMService creates a new Ollama LLM service.
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
			Name:    "ollama",
			BaseURL: cfg.BaseURL,
			Timeout: cfg.Timeout,
			Retry:   cfg.Retry,
		}),
		model: cfg.Model,
	}
}

// Generate sends the prompt as one user turn, after the system turn if any.
func (s *LLMService) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	turns := make([]chatTurn, 0, 2)
	if opts.System != "" {
		turns = append(turns, chatTurn{Role: "system", Content: opts.System})
	}
	turns = append(turns, chatTurn{Role: "user", Content: prompt})

	resp, err := s.api.PostJSON(ctx, "/api/chat", chatRequest{
		Model:    s.model,
		Messages: turns,
		Options: sampling{
			NumPredict:  opts.MaxTokens,
			Temperature: opts.Temperature,
			Stop:        opts.StopWords,
		},
	})
	if err != nil {
		return "", err
	}
	if !resp.OK() {
		return "", fmt.Errorf("ollama error (status %d): %s", resp.StatusCode, resp.Text())
	}

	var reply chatReply
	if err := resp.Decode(&reply); err != nil {
		return "", fmt.Errorf("ollama: %w", err)
	}
	if reply.Error != "" {
		return "", fmt.Errorf("ollama error: %s", reply.Error)
	}
	return strings.TrimSpace(reply.Message.Content), nil
}

// ModelName returns the name of the LLM model being used.
func (s *LLMService) ModelName() string {
	return s.model
}

// Ping lists local models, which needs no inference.
func (s *LLMService) Ping(ctx context.Context) error {
	return s.api.Check(ctx, "/api/tags")
}

// Close is a no-op.
func (s *LLMService) Close() error {
	return nil
}
