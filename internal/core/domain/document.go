package domain

import (
	"crypto/md5" //nolint:gosec // G501: change detection only
	"encoding/hex"
	"fmt"
)

// Document is one corpus file as seen by the indexer.
type Document struct {
	// ID is the stable document name, unique within the corpus.
	ID string

	// Path is where the document was read from.
	Path string

	// Content is the raw byte content.
	Content []byte

	// Fingerprint is the content hash of Content.
	Fingerprint string
}

// Text returns the document content as a string.
func (d Document) Text() string {
	return string(d.Content)
}

// ChunkMeta is the typed metadata every indexed chunk carries.
type ChunkMeta struct {
	// Source is the ID of the document the chunk was cut from.
	Source string `json:"source"`

	// ChunkID is the ordinal of the chunk within its document.
	ChunkID int `json:"chunk_id"`
}

// Chunk is a bounded span of a document's text, the unit stored in the
// vector index.
type Chunk struct {
	// ID is {document-id}_{ordinal}.
	ID string

	// Text is the chunk content.
	Text string

	// Meta links the chunk to its source document.
	Meta ChunkMeta

	// Embedding is filled by the index when the chunk is written.
	Embedding []float32
}

// ChunkID builds the deterministic chunk identifier for a document ordinal.
func ChunkID(documentID string, ordinal int) string {
	return fmt.Sprintf("%s_%d", documentID, ordinal)
}

// NewChunks turns chunker output into indexable chunks for one document.
func NewChunks(documentID string, texts []string) []Chunk {
	chunks := make([]Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = Chunk{
			ID:   ChunkID(documentID, i),
			Text: text,
			Meta: ChunkMeta{Source: documentID, ChunkID: i},
		}
	}
	return chunks
}

// Fingerprint returns the lowercase hex MD5 of content.
func Fingerprint(content []byte) string {
	sum := md5.Sum(content) //nolint:gosec // G401: change detection only
	return hex.EncodeToString(sum[:])
}
