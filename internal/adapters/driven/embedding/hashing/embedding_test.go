package hashing

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cosine(a, b []float32) float64 {
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot
}

func TestEmbed_Deterministic(t *testing.T) {
	s := NewEmbeddingService(64)

	a, err := s.Embed(context.Background(), "Возврат товара в течение 14 дней")
	require.NoError(t, err)
	b, err := s.Embed(context.Background(), "Возврат товара в течение 14 дней")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
}

func TestEmbed_Normalised(t *testing.T) {
	s := NewEmbeddingService(0)
	assert.Equal(t, DefaultDimensions, s.Dimensions())

	v, err := s.Embed(context.Background(), "refund policy for damaged goods")
	require.NoError(t, err)
	assert.InDelta(t, 1.0, math.Sqrt(cosine(v, v)), 1e-5)
}

func TestEmbed_Blank(t *testing.T) {
	v, err := NewEmbeddingService(16).Embed(context.Background(), "  ...  ")
	require.NoError(t, err)
	assert.Equal(t, make([]float32, 16), v)
}

func TestEmbed_SimilarTextsCloser(t *testing.T) {
	s := NewEmbeddingService(512)
	ctx := context.Background()

	vectors, err := s.EmbedBatch(ctx, []string{
		"how to reset my password",
		"password reset instructions",
		"shipping rates to europe",
	})
	require.NoError(t, err)

	assert.Greater(t, cosine(vectors[0], vectors[1]), cosine(vectors[0], vectors[2]))
}

func TestEmbedBatch_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewEmbeddingService(8).EmbedBatch(ctx, []string{"a"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"hello", "мир", "42"}, Tokenize("Hello, МИР! 42"))
	assert.Empty(t, Tokenize("--"))
}
