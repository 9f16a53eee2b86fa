package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/ragguard/internal/core/domain"
	"github.com/custodia-labs/ragguard/internal/core/ports/driven"
	"github.com/custodia-labs/ragguard/internal/logger"
)

// Answerer turns a question and its safe context into answer text.
type Answerer interface {
	// Answer generates the answer. Context is never empty when called
	// from the query pipeline.
	Answer(ctx context.Context, question string, chunks []domain.Candidate) (string, error)

	// Live reports whether a generation model is involved.
	Live() bool
}

// LLMAnswerer generates answers with a language model.
type LLMAnswerer struct {
	llm      driven.LLMService
	composer *PromptComposer
	opts     driven.GenerateOptions
}

// NewLLMAnswerer creates an answerer over the given model and prompts.
func NewLLMAnswerer(llm driven.LLMService, composer *PromptComposer, opts driven.GenerateOptions) *LLMAnswerer {
	return &LLMAnswerer{
		llm:      llm,
		composer: composer,
		opts:     opts,
	}
}

// Answer composes the prompt and calls the model.
func (a *LLMAnswerer) Answer(ctx context.Context, question string, chunks []domain.Candidate) (string, error) {
	prompt, err := a.composer.Compose(question, chunks)
	if err != nil {
		return "", err
	}
	logger.Debug("Prompt (%d bytes) for model %s", len(prompt), a.llm.ModelName())

	answer, err := a.llm.Generate(ctx, prompt, a.opts)
	if err != nil {
		return "", fmt.Errorf("%w: generate: %w", domain.ErrLLMUnavailable, err)
	}
	return answer, nil
}

// Live reports true.
func (a *LLMAnswerer) Live() bool {
	return true
}

// DefaultPreviewLength is how many runes of the top chunk the fallback echoes.
const DefaultPreviewLength = 240

// FallbackInsufficient is the fallback answer when there is no context.
const FallbackInsufficient = "Insufficient information in the knowledge base."

// FallbackAnswerer answers deterministically by echoing the top chunk.
// Evaluation runs use it when live generation is disabled.
type FallbackAnswerer struct {
	PreviewLength int
}

// NewFallbackAnswerer creates a fallback answerer with the default preview.
func NewFallbackAnswerer() *FallbackAnswerer {
	return &FallbackAnswerer{PreviewLength: DefaultPreviewLength}
}

// Answer returns a preview of the top chunk with its source.
func (a *FallbackAnswerer) Answer(_ context.Context, _ string, chunks []domain.Candidate) (string, error) {
	if len(chunks) == 0 {
		return FallbackInsufficient, nil
	}
	top := chunks[0]
	source := top.Source()
	if source == "" {
		source = "unknown"
	}
	return fmt.Sprintf("Based on the retrieved data (%s), the answer is: %s",
		source, preview(top.Text, a.PreviewLength)), nil
}

// Live reports false.
func (a *FallbackAnswerer) Live() bool {
	return false
}
