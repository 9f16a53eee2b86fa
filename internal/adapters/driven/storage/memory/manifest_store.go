package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/ragguard/internal/core/domain"
	"github.com/custodia-labs/ragguard/internal/core/ports/driven"
)

// Ensure ManifestStore implements the interface.
var _ driven.ManifestStore = (*ManifestStore)(nil)

// ManifestStore is an in-memory implementation of driven.ManifestStore.
type ManifestStore struct {
	mu       sync.RWMutex
	manifest domain.Manifest
}

// NewManifestStore creates an empty manifest store.
func NewManifestStore() *ManifestStore {
	return &ManifestStore{manifest: domain.Manifest{}}
}

// Load returns a copy of the stored manifest.
func (s *ManifestStore) Load(_ context.Context) (domain.Manifest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.manifest.Clone(), nil
}

// Save replaces the stored manifest.
func (s *ManifestStore) Save(_ context.Context, m domain.Manifest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.manifest = m.Clone()
	return nil
}
