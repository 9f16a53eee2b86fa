package services

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/ragguard/internal/core/domain"
	"github.com/custodia-labs/ragguard/internal/core/ports/driven"
	"github.com/custodia-labs/ragguard/internal/core/ports/driving"
	"github.com/custodia-labs/ragguard/internal/logger"
)

// Ensure Indexer implements the interface.
var _ driving.Indexer = (*Indexer)(nil)

// IndexOpener provides the vector index on demand. It is only called when
// a run has changes to apply, so no-op runs never load the embedding model.
// The indexer does not close what the opener returns.
type IndexOpener func(ctx context.Context) (driven.VectorIndex, error)

// Indexer keeps the vector index consistent with the corpus by diffing
// content fingerprints against the manifest.
//
// Runs within one process are serialised. Runs from separate processes
// against the same manifest must be prevented by whoever schedules them.
type Indexer struct {
	corpus    driven.Corpus
	manifests driven.ManifestStore
	chunker   driven.Chunker
	openIndex IndexOpener
	now       func() time.Time

	// Status tracking
	mu     sync.RWMutex
	status driving.IndexStatus
}

// NewIndexer creates a new incremental indexer.
func NewIndexer(
	corpus driven.Corpus,
	manifests driven.ManifestStore,
	chunker driven.Chunker,
	openIndex IndexOpener,
) *Indexer {
	return &Indexer{
		corpus:    corpus,
		manifests: manifests,
		chunker:   chunker,
		openIndex: openIndex,
		now:       time.Now,
	}
}

// corpusScan is the corpus state at the start of a run.
type corpusScan struct {
	previous domain.Manifest
	current  domain.Manifest
	docs     map[string]*domain.Document
	failed   map[string]string
	plan     domain.IndexPlan
}

// Plan classifies the corpus against the manifest without mutating anything.
func (ix *Indexer) Plan(ctx context.Context) (*domain.IndexPlan, error) {
	s, err := ix.scan(ctx)
	if err != nil {
		return nil, err
	}
	return &s.plan, nil
}

// Run applies the minimal index mutations and persists the new manifest.
//
//nolint:gocyclo // Orchestration function with necessary sequential steps
func (ix *Indexer) Run(ctx context.Context) (*domain.IndexReport, error) {
	if !ix.begin() {
		return nil, domain.ErrIndexInProgress
	}
	defer ix.end()

	start := ix.now()
	logger.Section("Incremental Index")

	// 1. Fingerprint the corpus and classify against the manifest
	s, err := ix.scan(ctx)
	if err != nil {
		return nil, err
	}

	report := &domain.IndexReport{
		Plan:      s.plan,
		Failed:    s.failed,
		StartedAt: start,
	}

	logger.Info("Scan: total=%d new=%d modified=%d deleted=%d unchanged=%d failed=%d",
		len(s.current), len(s.plan.New), len(s.plan.Modified),
		len(s.plan.Deleted), len(s.plan.Unchanged), len(s.failed))

	// 2. Nothing to do: leave the manifest and index untouched
	if !s.plan.HasChanges() {
		logger.Info("No changes detected, index is up to date")
		report.NoOp = true
		report.Duration = ix.now().Sub(start)
		return report, nil
	}

	// 3. Only now pay for the index and its embedding model
	index, err := ix.openIndex(ctx)
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}

	next := s.current.Clone()
	for id := range s.failed {
		if fp, ok := s.previous[id]; ok {
			next[id] = fp
		}
	}

	// 4. Deleted documents lose their chunks
	for _, id := range s.plan.Deleted {
		n, err := ix.deleteChunks(ctx, index, id)
		if err != nil {
			return nil, err
		}
		report.ChunksDeleted += n
		ix.processed()
		logger.Info("Removed %d chunks for deleted document %s", n, id)
	}

	// 5. Modified documents: delete before any write
	for _, id := range s.plan.Modified {
		n, err := ix.deleteChunks(ctx, index, id)
		if err != nil {
			return nil, err
		}
		report.ChunksDeleted += n
		logger.Debug("Removed %d stale chunks for %s", n, id)
	}

	// 6. Modified and new documents are chunked and written
	for _, id := range append(append([]string(nil), s.plan.Modified...), s.plan.New...) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		written, err := ix.writeDocument(ctx, index, s.docs[id], report)
		if err != nil {
			if isIndexFailure(err) {
				return nil, err
			}
			// Drop the entry so the next run retries the document.
			delete(next, id)
			report.Failed[id] = err.Error()
			ix.failed()
			logger.Warn("Skipping %s: %v", id, err)
			continue
		}
		report.ChunksWritten += written
		ix.processed()
	}

	// 7. Persist the manifest only after every mutation was attempted
	if err := ix.manifests.Save(ctx, next); err != nil {
		logger.Error("Failed to save manifest, next run will reprocess: %v", err)
	} else {
		report.ManifestSaved = true
	}

	report.Duration = ix.now().Sub(start)
	logger.Info("Index updated: %d chunks written, %d deleted in %s",
		report.ChunksWritten, report.ChunksDeleted, report.Duration.Round(time.Millisecond))

	return report, nil
}

// Status returns the progress of the current or last run.
func (ix *Indexer) Status() driving.IndexStatus {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.status
}

// scan loads the manifest, fingerprints every eligible document and
// classifies them. Documents that cannot be read are planned as unreadable
// and reported as failed.
func (ix *Indexer) scan(ctx context.Context) (*corpusScan, error) {
	previous, err := ix.manifests.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load manifest: %w", err)
	}
	if previous == nil {
		previous = domain.Manifest{}
	}

	ids, err := ix.corpus.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list corpus: %w", err)
	}

	s := &corpusScan{
		previous: previous,
		current:  make(domain.Manifest, len(ids)),
		docs:     make(map[string]*domain.Document, len(ids)),
		failed:   make(map[string]string),
	}

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		doc, err := ix.corpus.Read(ctx, id)
		if err != nil {
			logger.Warn("Failed to read %s: %v", id, err)
			s.failed[id] = err.Error()
			continue
		}
		s.current[id] = doc.Fingerprint
		s.docs[id] = doc
	}

	// A failed read is neither deleted nor changed: classify without it.
	diffBase := previous.Clone()
	for id := range s.failed {
		delete(diffBase, id)
	}
	s.plan = domain.Classify(s.current, diffBase)
	s.plan.Unreadable = slices.Sorted(maps.Keys(s.failed))

	return s, nil
}

// deleteChunks removes every chunk tagged with the document.
func (ix *Indexer) deleteChunks(ctx context.Context, index driven.VectorIndex, id string) (int, error) {
	ids, err := index.IDsBySource(ctx, id)
	if err != nil {
		return 0, &indexError{op: "find chunks for " + id, err: err}
	}
	if len(ids) == 0 {
		return 0, nil
	}
	if err := index.Delete(ctx, ids); err != nil {
		return 0, &indexError{op: "delete chunks for " + id, err: err}
	}
	return len(ids), nil
}

// writeDocument chunks a document and upserts its chunks as one batch.
func (ix *Indexer) writeDocument(
	ctx context.Context,
	index driven.VectorIndex,
	doc *domain.Document,
	report *domain.IndexReport,
) (int, error) {
	text := doc.Text()
	if strings.TrimSpace(text) == "" {
		logger.Warn("Document %s is empty, skipping", doc.ID)
		report.SkippedEmpty = append(report.SkippedEmpty, doc.ID)
		return 0, nil
	}

	texts, err := ix.chunker.Chunk(text)
	if err != nil {
		return 0, fmt.Errorf("chunk: %w", err)
	}
	if len(texts) == 0 {
		return 0, nil
	}

	chunks := domain.NewChunks(doc.ID, texts)
	if err := index.Upsert(ctx, chunks); err != nil {
		return 0, &indexError{op: "upsert chunks for " + doc.ID, err: err}
	}

	logger.Debug("Wrote %d chunks for %s", len(chunks), doc.ID)
	return len(chunks), nil
}

func (ix *Indexer) begin() bool {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.status.Running {
		return false
	}
	ix.status = driving.IndexStatus{Running: true}
	return true
}

func (ix *Indexer) end() {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.status.Running = false
}

func (ix *Indexer) processed() {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.status.DocumentsProcessed++
}

func (ix *Indexer) failed() {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.status.ErrorCount++
}

// indexError marks a vector index failure, which aborts the run.
type indexError struct {
	op  string
	err error
}

func (e *indexError) Error() string {
	return e.op + ": " + e.err.Error()
}

func (e *indexError) Unwrap() error {
	return e.err
}

func isIndexFailure(err error) bool {
	var ie *indexError
	return errors.As(err, &ie)
}
