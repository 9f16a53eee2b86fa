package driven

import (
	"context"

	"github.com/custodia-labs/ragguard/internal/core/domain"
)

// Corpus enumerates and reads the documents eligible for indexing.
type Corpus interface {
	// List returns the IDs of eligible documents in sorted order.
	List(ctx context.Context) ([]string, error)

	// Read returns a document with its content and fingerprint.
	Read(ctx context.Context, id string) (*domain.Document, error)

	// Watch emits a signal whenever eligible documents change, until ctx
	// is cancelled. The channel is closed on return.
	Watch(ctx context.Context) (<-chan struct{}, error)
}

// Chunker splits document text into bounded, overlapping spans.
type Chunker interface {
	// Chunk returns the spans of text. Blank text yields no spans.
	Chunk(text string) ([]string, error)
}
