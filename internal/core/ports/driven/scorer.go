package driven

import "context"

// RelevanceScorer scores how well texts match a query; higher is more
// relevant. It serves both reranking against the user query and
// adversarial affinity against injection probes.
//
// Implementations include:
//   - Cross-encoder rerank endpoints (mxbai-rerank, bge-reranker)
//   - Lexical token overlap (local, deterministic)
type RelevanceScorer interface {
	// Score returns one score per text, in the order given.
	Score(ctx context.Context, query string, texts []string) ([]float64, error)

	// ModelName returns the name of the scoring model.
	ModelName() string
}
