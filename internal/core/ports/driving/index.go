package driving

import (
	"context"

	"github.com/custodia-labs/ragguard/internal/core/domain"
)

// Indexer keeps the vector index consistent with the corpus.
type Indexer interface {
	// Plan classifies the corpus against the manifest without mutating anything.
	Plan(ctx context.Context) (*domain.IndexPlan, error)

	// Run applies the minimal index mutations and persists the new manifest.
	Run(ctx context.Context) (*domain.IndexReport, error)

	// Status returns the progress of the current or last run.
	Status() IndexStatus
}

// IndexStatus represents the current state of an indexing run.
type IndexStatus struct {
	// Running indicates if a run is currently in progress.
	Running bool

	// DocumentsProcessed is the count of documents mutated so far.
	DocumentsProcessed int

	// ErrorCount is the number of per-document errors encountered.
	ErrorCount int
}
