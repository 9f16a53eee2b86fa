package driving

import (
	"context"

	"github.com/custodia-labs/ragguard/internal/core/domain"
)

// QueryService answers user questions through retrieval, reranking and
// injection defense.
type QueryService interface {
	// Ask answers a question. Queries without usable context return one of
	// the fixed messages rather than an error.
	Ask(ctx context.Context, question string) (*domain.Answer, error)
}
