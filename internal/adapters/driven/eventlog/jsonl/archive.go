package jsonl

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/custodia-labs/ragguard/internal/core/domain"
	"github.com/custodia-labs/ragguard/internal/core/ports/driven"
)

// Ensure Archive implements the interface.
var _ driven.RunArchive = (*Archive)(nil)

// Archive keeps run logs in one directory and reports in another.
type Archive struct {
	logsDir    string
	reportsDir string
}

// NewArchive creates an archive. Directories are created on first write.
func NewArchive(logsDir, reportsDir string) *Archive {
	return &Archive{logsDir: logsDir, reportsDir: reportsDir}
}

// OpenRunLog opens a new append-only log in the logs directory.
func (a *Archive) OpenRunLog(_ context.Context, name string) (driven.EventSink, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	sink, err := OpenSink(filepath.Join(a.logsDir, name))
	if err != nil {
		return nil, err
	}
	return sink, nil
}

// SaveReport writes report as indented JSON in the reports directory.
func (a *Archive) SaveReport(_ context.Context, name string, report any) (string, error) {
	if err := checkName(name); err != nil {
		return "", err
	}
	if err := os.MkdirAll(a.reportsDir, 0755); err != nil {
		return "", fmt.Errorf("creating reports directory: %w", err)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return "", fmt.Errorf("encoding report: %w", err)
	}

	path := filepath.Join(a.reportsDir, name)
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return "", fmt.Errorf("writing report: %w", err)
	}
	return path, nil
}

// LatestRunLog returns the lexicographically last log whose name starts
// with prefix and ends in .jsonl.
func (a *Archive) LatestRunLog(_ context.Context, prefix string) (string, error) {
	entries, err := os.ReadDir(a.logsDir)
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("%w: no run logs in %s", domain.ErrNotFound, a.logsDir)
	}
	if err != nil {
		return "", fmt.Errorf("reading logs directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.Type().IsRegular() && strings.HasPrefix(name, prefix) && strings.HasSuffix(name, ".jsonl") {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return "", fmt.Errorf("%w: no %s*.jsonl in %s", domain.ErrNotFound, prefix, a.logsDir)
	}
	sort.Strings(names)
	return filepath.Join(a.logsDir, names[len(names)-1]), nil
}

// ReadGoldenEvents decodes an evaluation run log.
func (a *Archive) ReadGoldenEvents(ctx context.Context, path string) ([]domain.GoldenEvent, error) {
	return readLines[domain.GoldenEvent](ctx, path)
}

// ReadQueryEvents decodes a query log. A missing file yields no events.
func (a *Archive) ReadQueryEvents(ctx context.Context, path string) ([]domain.QueryEvent, error) {
	return readLines[domain.QueryEvent](ctx, path)
}

func checkName(name string) error {
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." {
		return fmt.Errorf("%w: file name %q", domain.ErrInvalidInput, name)
	}
	return nil
}
