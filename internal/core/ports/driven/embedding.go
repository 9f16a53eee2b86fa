// Package driven provides interfaces for infrastructure adapters (secondary/outbound ports).
package driven

import "context"

// EmbeddingService generates vector embeddings from text.
//
// Implementations must be deterministic: the same text always yields the
// same vector, otherwise skipping unchanged documents would leave the
// index inconsistent with query embeddings.
//
// Implementations include:
//   - Feature hashing (local, no model)
//   - Ollama (nomic-embed-text, all-minilm)
//   - OpenAI compatible servers (text-embedding-3-small, LM Studio)
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch embeds texts in order; len(result) == len(texts).
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size.
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Ping checks the provider answers without embedding.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
