package services

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/ragguard/internal/core/domain"
	"github.com/custodia-labs/ragguard/internal/core/ports/driven"
)

// PromptComposer fills the answer template with retrieved context.
type PromptComposer struct {
	prompts driven.PromptStore
}

// NewPromptComposer creates a composer reading templates from prompts.
func NewPromptComposer(prompts driven.PromptStore) *PromptComposer {
	return &PromptComposer{prompts: prompts}
}

// Compose substitutes the context block and the question into the template.
func (c *PromptComposer) Compose(question string, chunks []domain.Candidate) (string, error) {
	tmpl, err := c.prompts.Load(driven.PromptAnswer)
	if err != nil {
		return "", fmt.Errorf("load answer prompt: %w", err)
	}

	prompt := strings.ReplaceAll(tmpl, driven.PlaceholderDocs, FormatContext(chunks))
	prompt = strings.ReplaceAll(prompt, driven.PlaceholderQuestion, question)
	return prompt, nil
}

// FormatContext renders candidates as numbered source blocks.
func FormatContext(chunks []domain.Candidate) string {
	var b strings.Builder
	for i, c := range chunks {
		fmt.Fprintf(&b, "[%d] Source[%s] Relevance: %.4f | Text: %s\n\n", i+1, c.Source(), c.Relevance, c.Text)
	}
	return b.String()
}
