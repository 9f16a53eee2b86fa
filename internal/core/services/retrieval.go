package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/custodia-labs/ragguard/internal/core/domain"
	"github.com/custodia-labs/ragguard/internal/core/ports/driven"
	"github.com/custodia-labs/ragguard/internal/logger"
)

// Retriever runs similarity search against the vector index and reranks
// the results with a relevance scorer.
type Retriever struct {
	index  driven.VectorIndex
	scorer driven.RelevanceScorer
}

// NewRetriever creates a retriever over the given index and scorer.
func NewRetriever(index driven.VectorIndex, scorer driven.RelevanceScorer) *Retriever {
	return &Retriever{
		index:  index,
		scorer: scorer,
	}
}

// Retrieve returns up to topK candidates ordered by ascending distance.
// Hits without text are dropped.
func (r *Retriever) Retrieve(ctx context.Context, query string, topK int) ([]domain.Candidate, error) {
	logger.Section("Retrieval")

	hits, err := r.index.Query(ctx, query, topK)
	if err != nil {
		return nil, fmt.Errorf("%w: query: %w", domain.ErrIndexUnavailable, err)
	}

	cands := make([]domain.Candidate, 0, len(hits))
	for _, hit := range hits {
		if strings.TrimSpace(hit.Text) == "" {
			logger.Debug("Dropping empty hit %s", hit.ID)
			continue
		}
		cands = append(cands, domain.Candidate{
			Text:     hit.Text,
			Meta:     hit.Meta,
			Rank:     len(cands),
			Distance: hit.Distance,
		})
	}

	logger.Debug("Retrieved %d candidates (%d hits) for %q", len(cands), len(hits), query)
	return cands, nil
}

// Rerank scores every candidate against the query and returns them sorted
// by relevance, highest first. Ties keep retrieval order. The candidate
// set itself never changes.
func (r *Retriever) Rerank(ctx context.Context, query string, cands []domain.Candidate) ([]domain.Candidate, error) {
	if len(cands) == 0 {
		return nil, nil
	}
	logger.Section("Rerank")

	scores, err := r.scorer.Score(ctx, query, candidateTexts(cands))
	if err != nil {
		return nil, fmt.Errorf("%w: rerank: %w", domain.ErrScorerUnavailable, err)
	}
	if len(scores) != len(cands) {
		return nil, fmt.Errorf("%w: rerank returned %d scores for %d candidates",
			domain.ErrScorerUnavailable, len(scores), len(cands))
	}

	out := make([]domain.Candidate, len(cands))
	copy(out, cands)
	for i := range out {
		out[i].Relevance = scores[i]
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Relevance > out[j].Relevance
	})

	for i, c := range out {
		logger.Debug("  %d. rel=%.4f dist=%.4f [%s]", i+1, c.Relevance, c.Distance, c.Source())
	}
	return out, nil
}

func candidateTexts(cands []domain.Candidate) []string {
	texts := make([]string, len(cands))
	for i, c := range cands {
		texts[i] = c.Text
	}
	return texts
}
