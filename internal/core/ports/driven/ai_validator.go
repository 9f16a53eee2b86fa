package driven

import (
	"context"

	"github.com/custodia-labs/ragguard/internal/core/domain"
)

// AIConfigValidator backs `config check`: each method builds the configured
// provider and proves it answers before any index or query work starts.
type AIConfigValidator interface {
	// ValidateEmbedding builds the embedder and pings it.
	ValidateEmbedding(ctx context.Context, config *domain.EmbeddingSettings) error

	// ValidateRerank builds the scorer and scores one query/passage pair.
	ValidateRerank(ctx context.Context, config *domain.RerankSettings) error

	// ValidateLLM builds the generation model and pings it.
	ValidateLLM(ctx context.Context, config *domain.LLMSettings) error
}
