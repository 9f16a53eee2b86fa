package driven

import (
	"context"

	"github.com/custodia-labs/ragguard/internal/core/domain"
)

// VectorIndex stores document chunks and answers similarity queries.
// The index embeds chunk text itself on write and query text on search.
type VectorIndex interface {
	// Upsert writes chunks, replacing any existing chunk with the same ID.
	Upsert(ctx context.Context, chunks []domain.Chunk) error

	// Delete removes chunks by ID. Unknown IDs are ignored.
	Delete(ctx context.Context, ids []string) error

	// IDsBySource returns the IDs of every chunk tagged with source.
	IDsBySource(ctx context.Context, source string) ([]string, error)

	// Query returns up to topK hits ordered by ascending distance.
	Query(ctx context.Context, text string, topK int) ([]Hit, error)

	// Count returns the number of stored chunks.
	Count(ctx context.Context) (int, error)

	// Close releases resources.
	Close() error
}

// Hit is one similarity search result.
type Hit struct {
	// ID is the matched chunk ID.
	ID string

	// Text is the stored chunk text.
	Text string

	// Meta is the stored chunk metadata.
	Meta domain.ChunkMeta

	// Distance is the cosine distance to the query; lower is more similar.
	Distance float64
}
