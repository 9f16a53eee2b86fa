package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/ragguard/internal/core/domain"
	"github.com/custodia-labs/ragguard/internal/core/ports/driven"
)

// Ensure RunHistoryStore implements the interface.
var _ driven.RunHistoryStore = (*RunHistoryStore)(nil)

// RunHistoryStore is an in-memory implementation of driven.RunHistoryStore.
type RunHistoryStore struct {
	mu   sync.RWMutex
	runs []domain.IndexRun
}

// NewRunHistoryStore creates an empty run history.
func NewRunHistoryStore() *RunHistoryStore {
	return &RunHistoryStore{}
}

// SaveRun appends one run.
func (s *RunHistoryStore) SaveRun(_ context.Context, run domain.IndexRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs = append(s.runs, run)
	return nil
}

// RecentRuns returns up to limit runs, oldest first.
func (s *RunHistoryStore) RecentRuns(_ context.Context, limit int) ([]domain.IndexRun, error) {
	if limit <= 0 {
		return nil, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	start := 0
	if len(s.runs) > limit {
		start = len(s.runs) - limit
	}
	return append([]domain.IndexRun(nil), s.runs[start:]...), nil
}
