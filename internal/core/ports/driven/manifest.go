package driven

import (
	"context"

	"github.com/custodia-labs/ragguard/internal/core/domain"
)

// ManifestStore persists the document fingerprint manifest.
type ManifestStore interface {
	// Load returns the stored manifest, or an empty one if none exists.
	Load(ctx context.Context) (domain.Manifest, error)

	// Save replaces the stored manifest in a single atomic write.
	Save(ctx context.Context, m domain.Manifest) error
}
