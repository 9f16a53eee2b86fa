// Package driven provides interfaces for infrastructure adapters (secondary/outbound ports).
package driven

import "context"

// LLMService generates answers from assembled prompts.
//
// Implementations include:
//   - OpenAI compatible servers (LM Studio, vLLM, OpenAI)
//   - Ollama (local models)
//   - Anthropic (Claude)
//   - Gemini
type LLMService interface {
	// Generate returns the model's answer to a fully composed prompt.
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)

	// ModelName returns the name of the LLM model being used.
	ModelName() string

	// Ping checks the provider answers without generating.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// GenerateOptions configures text generation behaviour.
type GenerateOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature comes from llm.temperature.
	Temperature float64

	// StopWords end generation early.
	StopWords []string

	// System is an optional system prompt.
	System string
}
