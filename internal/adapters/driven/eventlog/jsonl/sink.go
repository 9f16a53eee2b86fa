// Package jsonl stores query events, evaluation run logs and reports as
// JSON files. Event streams are JSON Lines: one object per line, appended
// and never rewritten.
package jsonl

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/custodia-labs/ragguard/internal/core/ports/driven"
	"github.com/custodia-labs/ragguard/internal/logger"
)

// Ensure Sink implements the interface.
var _ driven.EventSink = (*Sink)(nil)

// Sink appends JSON records to a file, one per line.
type Sink struct {
	path string

	mu   sync.Mutex
	file *os.File
}

// OpenSink opens path for appending, creating it and its directory if needed.
func OpenSink(path string) (*Sink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("opening event log: %w", err)
	}
	return &Sink{path: path, file: f}, nil
}

// Append writes one record as a single line. Non-ASCII text is written
// verbatim.
func (s *Sink) Append(_ context.Context, record any) error {
	line, err := encodeLine(record)
	if err != nil {
		return fmt.Errorf("encoding event: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return fmt.Errorf("event log %s is closed", s.path)
	}
	if _, err := s.file.Write(line); err != nil {
		return fmt.Errorf("writing event: %w", err)
	}
	return nil
}

// Path returns the file the records are written to.
func (s *Sink) Path() string {
	return s.path
}

// Close flushes and closes the file. Closing twice is a no-op.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return nil
	}
	err := s.file.Sync()
	if cerr := s.file.Close(); err == nil {
		err = cerr
	}
	s.file = nil
	return err
}

// encodeLine marshals v without HTML escaping, terminated by a newline.
func encodeLine(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// readLines decodes every non-blank line of path into a T. A missing file
// yields no records. Lines that do not decode are logged and skipped, so a
// record cut short by a crash does not hide the rest of the log.
func readLines[T any](ctx context.Context, path string) ([]T, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var (
		out    []T
		lineNo int
	)
	r := bufio.NewReader(f)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line, err := r.ReadBytes('\n')
		if len(line) > 0 {
			lineNo++
			if trimmed := bytes.TrimSpace(line); len(trimmed) > 0 {
				var v T
				if jerr := json.Unmarshal(trimmed, &v); jerr != nil {
					logger.Warn("Skipping malformed line %d of %s: %v", lineNo, path, jerr)
				} else {
					out = append(out, v)
				}
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
	}
	return out, nil
}
