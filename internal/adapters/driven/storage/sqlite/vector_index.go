package sqlite

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"sort"

	"github.com/custodia-labs/ragguard/internal/core/domain"
	"github.com/custodia-labs/ragguard/internal/core/ports/driven"
)

// Ensure VectorIndex implements the interface.
var _ driven.VectorIndex = (*VectorIndex)(nil)

// VectorIndex stores chunks of one collection with their embeddings.
type VectorIndex struct {
	store      *Store
	collection string
	embedder   driven.EmbeddingService
}

// Upsert embeds the chunks and writes them in one transaction.
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

	tx, err := v.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: beginning transaction: %w", domain.ErrIndexUnavailable, err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (collection, id, source, ordinal, content, embedding, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(collection, id) DO UPDATE SET
			source = excluded.source,
			ordinal = excluded.ordinal,
			content = excluded.content,
			embedding = excluded.embedding,
			updated_at = excluded.updated_at
	`)
	if err != nil {
		return fmt.Errorf("%w: preparing statement: %w", domain.ErrIndexUnavailable, err)
	}
	defer stmt.Close()

	for i, c := range chunks {
		if _, err := stmt.ExecContext(ctx, v.collection, c.ID, c.Meta.Source, c.Meta.ChunkID,
			c.Text, float32SliceToBytes(vectors[i])); err != nil {
			return fmt.Errorf("%w: saving chunk %s: %w", domain.ErrIndexUnavailable, c.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: committing transaction: %w", domain.ErrIndexUnavailable, err)
	}
	return nil
}

// Delete removes chunks by ID. Unknown IDs are ignored.
func (v *VectorIndex) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	tx, err := v.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: beginning transaction: %w", domain.ErrIndexUnavailable, err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, "DELETE FROM chunks WHERE collection = ? AND id = ?")
	if err != nil {
		return fmt.Errorf("%w: preparing statement: %w", domain.ErrIndexUnavailable, err)
	}
	defer stmt.Close()

	for _, id := range ids {
		if _, err := stmt.ExecContext(ctx, v.collection, id); err != nil {
			return fmt.Errorf("%w: deleting chunk %s: %w", domain.ErrIndexUnavailable, id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: committing transaction: %w", domain.ErrIndexUnavailable, err)
	}
	return nil
}

// IDsBySource returns the IDs of every chunk tagged with source, in chunk order.
func (v *VectorIndex) IDsBySource(ctx context.Context, source string) ([]string, error) {
	rows, err := v.store.db.QueryContext(ctx,
		"SELECT id FROM chunks WHERE collection = ? AND source = ? ORDER BY ordinal",
		v.collection, source)
	if err != nil {
		return nil, fmt.Errorf("%w: querying chunks: %w", domain.ErrIndexUnavailable, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%w: scanning chunk id: %w", domain.ErrIndexUnavailable, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating chunks: %w", domain.ErrIndexUnavailable, err)
	}
	return ids, nil
}

// Query embeds text and returns the topK nearest chunks by cosine distance.
// Equal distances are ordered by chunk ID.
func (v *VectorIndex) Query(ctx context.Context, text string, topK int) ([]driven.Hit, error) {
	if topK <= 0 {
		return nil, nil
	}

	query, err := v.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%w: embedding query: %w", domain.ErrIndexUnavailable, err)
	}

	rows, err := v.store.db.QueryContext(ctx,
		"SELECT id, source, ordinal, content, embedding FROM chunks WHERE collection = ?",
		v.collection)
	if err != nil {
		return nil, fmt.Errorf("%w: querying chunks: %w", domain.ErrIndexUnavailable, err)
	}
	defer rows.Close()

	var hits []driven.Hit
	for rows.Next() {
		var (
			hit  driven.Hit
			blob []byte
		)
		if err := rows.Scan(&hit.ID, &hit.Meta.Source, &hit.Meta.ChunkID, &hit.Text, &blob); err != nil {
			return nil, fmt.Errorf("%w: scanning chunk: %w", domain.ErrIndexUnavailable, err)
		}
		hit.Distance = domain.CosineDistance(query, bytesToFloat32Slice(blob))
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating chunks: %w", domain.ErrIndexUnavailable, err)
	}

	sort.SliceStable(hits, func(i, j int) bool {
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

// Count returns the number of chunks in the collection.
func (v *VectorIndex) Count(ctx context.Context) (int, error) {
	var n int
	row := v.store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chunks WHERE collection = ?", v.collection)
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: counting chunks: %w", domain.ErrIndexUnavailable, err)
	}
	return n, nil
}

// Close is a no-op; the Store owns the connection.
func (v *VectorIndex) Close() error {
	return nil
}

// float32SliceToBytes converts []float32 to a little-endian byte slice.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
