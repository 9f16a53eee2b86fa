package driven

import (
	"context"

	"github.com/custodia-labs/ragguard/internal/core/domain"
)

// EventSink is an append-only stream of JSON records.
type EventSink interface {
	// Append writes one record. Records are never rewritten.
	Append(ctx context.Context, record any) error

	// Path returns where the records are written.
	Path() string

	// Close flushes and releases the stream.
	Close() error
}

// RunArchive stores evaluation run logs and reports.
type RunArchive interface {
	// OpenRunLog opens a new append-only run log with the given file name.
	OpenRunLog(ctx context.Context, name string) (EventSink, error)

	// SaveReport writes a JSON report with the given file name and returns its path.
	SaveReport(ctx context.Context, name string, report any) (string, error)

	// LatestRunLog returns the lexicographically last run log whose name
	// starts with prefix, or domain.ErrNotFound.
	LatestRunLog(ctx context.Context, prefix string) (string, error)

	// ReadGoldenEvents decodes a run log written by an evaluation run.
	ReadGoldenEvents(ctx context.Context, path string) ([]domain.GoldenEvent, error)

	// ReadQueryEvents decodes a query log. A missing file yields no events.
	ReadQueryEvents(ctx context.Context, path string) ([]domain.QueryEvent, error)
}

// GoldenSetLoader loads the labelled evaluation cases.
type GoldenSetLoader interface {
	// Load returns the validated golden cases.
	Load(ctx context.Context) ([]domain.GoldenCase, error)
}
