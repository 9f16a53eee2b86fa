package driven

import (
	"context"

	"github.com/custodia-labs/ragguard/internal/core/domain"
)

// RunHistoryStore persists the outcome of scheduled and watched index runs.
type RunHistoryStore interface {
	// SaveRun appends one run.
	SaveRun(ctx context.Context, run domain.IndexRun) error

	// RecentRuns returns up to limit runs, oldest first.
	RecentRuns(ctx context.Context, limit int) ([]domain.IndexRun, error)
}
