package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/custodia-labs/ragguard/internal/core/domain"
	"github.com/custodia-labs/ragguard/internal/core/ports/driven"
)

// Ensure VectorIndex implements the interface.
var _ driven.VectorIndex = (*VectorIndex)(nil)

// VectorIndex is an in-memory implementation of driven.VectorIndex.
type VectorIndex struct {
	embedder driven.EmbeddingService

	mu     sync.RWMutex
	chunks map[string]domain.Chunk
}

// NewVectorIndex creates an empty in-memory index that embeds with embedder.
func NewVectorIndex(embedder driven.EmbeddingService) *VectorIndex {
	return &VectorIndex{
		embedder: embedder,
		chunks:   make(map[string]domain.Chunk),
	}
}

// Upsert embeds and stores chunks, replacing existing IDs.
func (v *VectorIndex) Upsert(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := v.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("%w: embedding chunks: %w", domain.ErrIndexUnavailable, err)
	}
	if len(vectors) != len(chunks) {
		return fmt.Errorf("%w: expected %d embeddings, got %d",
			domain.ErrIndexUnavailable, len(chunks), len(vectors))
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	for i, c := range chunks {
		c.Embedding = vectors[i]
		v.chunks[c.ID] = c
	}
	return nil
}

// Delete removes chunks by ID.
func (v *VectorIndex) Delete(_ context.Context, ids []string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, id := range ids {
		delete(v.chunks, id)
	}
	return nil
}

// IDsBySource returns the chunk IDs of a document in chunk order.
func (v *VectorIndex) IDsBySource(_ context.Context, source string) ([]string, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	var matched []domain.Chunk
	for _, c := range v.chunks {
		if c.Meta.Source == source {
			matched = append(matched, c)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].Meta.ChunkID < matched[j].Meta.ChunkID
	})

	ids := make([]string, len(matched))
	for i, c := range matched {
		ids[i] = c.ID
	}
	return ids, nil
}

// Query returns the topK nearest chunks by cosine distance, ties by ID.
func (v *VectorIndex) Query(ctx context.Context, text string, topK int) ([]driven.Hit, error) {
	if topK <= 0 {
		return nil, nil
	}

	query, err := v.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%w: embedding query: %w", domain.ErrIndexUnavailable, err)
	}

	v.mu.RLock()
	hits := make([]driven.Hit, 0, len(v.chunks))
	for _, c := range v.chunks {
		hits = append(hits, driven.Hit{
			ID:       c.ID,
			Text:     c.Text,
			Meta:     c.Meta,
			Distance: domain.CosineDistance(query, c.Embedding),
		})
	}
	v.mu.RUnlock()

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Distance != hits[j].Distance {
			return hits[i].Distance < hits[j].Distance
		}
		return hits[i].ID < hits[j].ID
	})
	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

// Count returns the number of stored chunks.
func (v *VectorIndex) Count(_ context.Context) (int, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.chunks), nil
}

// Close is a no-op for in-memory storage.
func (v *VectorIndex) Close() error {
	return nil
}
