package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/custodia-labs/ragguard/internal/core/domain"
	"github.com/custodia-labs/ragguard/internal/logger"
)

// Stash moves the named documents into the gaps directory so that their
// content is absent from the next index run. Missing documents are logged
// and skipped. It returns the moved IDs.
func (c *Corpus) Stash(ctx context.Context, ids []string) ([]string, error) {
	if c.gapsDir == "" {
		return nil, fmt.Errorf("%w: gaps directory not configured", domain.ErrConfigInvalid)
	}
	if err := os.MkdirAll(c.gapsDir, 0755); err != nil {
		return nil, fmt.Errorf("creating gaps directory: %w", err)
	}
	return c.move(ctx, ids, c.dir, c.gapsDir, "Moved to gaps")
}

// Restore moves documents from the gaps directory back into the corpus.
// With no IDs every stashed document is restored.
func (c *Corpus) Restore(ctx context.Context, ids []string) ([]string, error) {
	if c.gapsDir == "" {
		return nil, fmt.Errorf("%w: gaps directory not configured", domain.ErrConfigInvalid)
	}

	if len(ids) == 0 {
		entries, err := os.ReadDir(c.gapsDir)
		if errors.Is(err, fs.ErrNotExist) {
			logger.Info("Gaps directory not found, nothing to restore")
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("reading gaps directory: %w", err)
		}
		for _, entry := range entries {
			if entry.Type().IsRegular() {
				ids = append(ids, entry.Name())
			}
		}
		sort.Strings(ids)
	}

	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return nil, fmt.Errorf("creating corpus directory: %w", err)
	}
	return c.move(ctx, ids, c.gapsDir, c.dir, "Restored")
}

func (c *Corpus) move(ctx context.Context, ids []string, from, to, verb string) ([]string, error) {
	var moved []string
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return moved, err
		}
		if !validID(id) {
			return moved, fmt.Errorf("%w: document id %q", domain.ErrInvalidInput, id)
		}

		src := filepath.Join(from, id)
		if _, err := os.Stat(src); errors.Is(err, fs.ErrNotExist) {
			logger.Warn("Not found: %s", src)
			continue
		}
		if err := os.Rename(src, filepath.Join(to, id)); err != nil {
			return moved, fmt.Errorf("moving %s: %w", id, err)
		}
		moved = append(moved, id)
		logger.Info("%s: %s", verb, id)
	}
	return moved, nil
}
