package driving

import (
	"context"

	"github.com/custodia-labs/ragguard/internal/core/domain"
)

// Scheduler runs indexing in the background.
type Scheduler interface {
	// Start begins running scheduled indexing.
	// Blocks until context is cancelled or Stop is called.
	Start(ctx context.Context) error

	// Stop gracefully stops scheduling and waits for an active run.
	Stop() error

	// History returns recent runs, newest last.
	History() []domain.IndexRun
}
