package driving

import (
	"context"

	"github.com/custodia-labs/ragguard/internal/core/domain"
)

// Evaluator replays golden cases through the query path and scores them.
type Evaluator interface {
	// Run evaluates every case and returns the aggregate report.
	Run(ctx context.Context, cases []domain.GoldenCase) (*domain.GoldenReport, error)
}

// Analyzer summarises evaluation and query logs.
type Analyzer interface {
	// Summarize analyses the latest run log and the query log and saves the summary.
	Summarize(ctx context.Context) (*domain.AnalyticsSummary, error)
}
