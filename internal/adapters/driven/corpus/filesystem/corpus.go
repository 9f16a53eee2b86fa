// Package filesystem provides the knowledge base corpus backed by a local directory.
//
// Documents are the regular files directly inside the directory whose
// extension is eligible. The file name is the document ID, so renaming a
// file is indexed as a delete plus a new document.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/ragguard/internal/core/domain"
	"github.com/custodia-labs/ragguard/internal/core/ports/driven"
	"github.com/custodia-labs/ragguard/internal/logger"
)

// Ensure Corpus implements the interface.
var _ driven.Corpus = (*Corpus)(nil)

// DefaultExtension is the eligible extension when none is configured.
const DefaultExtension = ".md"

// Config configures a directory corpus.
type Config struct {
	// Dir is the knowledge base directory.
	Dir string

	// Extensions are the eligible extensions including the dot (default: .md).
	// Matching is case-insensitive.
	Extensions []string

	// GapsDir receives documents moved out by Stash.
	GapsDir string
}

// Corpus reads documents from a flat directory.
type Corpus struct {
	dir        string
	extensions map[string]bool
	gapsDir    string
}

// New creates a directory corpus.
func New(cfg Config) *Corpus {
	exts := cfg.Extensions
	if len(exts) == 0 {
		exts = []string{DefaultExtension}
	}
	set := make(map[string]bool, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		set[ext] = true
	}
	return &Corpus{
		dir:        cfg.Dir,
		extensions: set,
		gapsDir:    cfg.GapsDir,
	}
}

// Dir returns the corpus directory.
func (c *Corpus) Dir() string {
	return c.dir
}

// List returns the eligible file names in sorted order. A missing
// directory is an empty corpus.
func (c *Corpus) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(c.dir)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Warn("Corpus directory %s does not exist", c.dir)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading corpus directory: %w", err)
	}

	var ids []string
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !entry.Type().IsRegular() || !c.eligible(entry.Name()) {
			continue
		}
		ids = append(ids, entry.Name())
	}
	sort.Strings(ids)
	return ids, nil
}

// Read returns the document content and its fingerprint.
func (c *Corpus) Read(_ context.Context, id string) (*domain.Document, error) {
	if !validID(id) {
		return nil, fmt.Errorf("%w: document id %q", domain.ErrInvalidInput, id)
	}

	path := filepath.Join(c.dir, id)
	content, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", id, err)
	}

	return &domain.Document{
		ID:          id,
		Path:        path,
		Content:     content,
		Fingerprint: domain.Fingerprint(content),
	}, nil
}

// Watch emits a signal when an eligible file is created, written, removed
// or renamed. Signals coalesce: a burst of events yields at least one.
func (c *Corpus) Watch(ctx context.Context) (<-chan struct{}, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if err := watcher.Add(c.dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watching %s: %w", c.dir, err)
	}

	changes := make(chan struct{}, 1)
	go func() {
		defer close(changes)
		defer watcher.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !c.relevant(event) {
					continue
				}
				logger.Debug("Corpus change: %s %s", event.Op, filepath.Base(event.Name))
				select {
				case changes <- struct{}{}:
				default:
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("Corpus watcher error: %v", err)
			}
		}
	}()

	return changes, nil
}

// relevant reports whether an fsnotify event can change the corpus.
func (c *Corpus) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}
	return c.eligible(filepath.Base(event.Name))
}

// eligible reports whether a file name belongs to the corpus.
func (c *Corpus) eligible(name string) bool {
	if strings.HasPrefix(name, ".") {
		return false
	}
	return c.extensions[strings.ToLower(filepath.Ext(name))]
}

// validID rejects IDs that would escape the corpus directory.
func validID(id string) bool {
	return id != "" && id != "." && id != ".." && !strings.ContainsAny(id, `/\`)
}
