// Package file loads the golden evaluation set from a JSON or YAML file.
package file

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/ragguard/internal/core/domain"
	"github.com/custodia-labs/ragguard/internal/core/ports/driven"
)

// Ensure Loader implements the interface.
var _ driven.GoldenSetLoader = (*Loader)(nil)

// Loader reads a golden set: a top-level list of cases. The format is
// chosen by extension: .json, .yaml or .yml.
type Loader struct {
	path string
}

// NewLoader creates a loader for path.
func NewLoader(path string) *Loader {
	return &Loader{path: path}
}

// Load reads, decodes and validates the cases. Any failure wraps
// domain.ErrGoldenSetInvalid.
func (l *Loader) Load(_ context.Context) ([]domain.GoldenCase, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrGoldenSetInvalid, err)
	}

	var cases []domain.GoldenCase
	switch ext := strings.ToLower(filepath.Ext(l.path)); ext {
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(&cases)
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		err = dec.Decode(&cases)
	default:
		return nil, fmt.Errorf("%w: %w: extension %q", domain.ErrGoldenSetInvalid, domain.ErrUnsupportedType, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: decoding %s: %w", domain.ErrGoldenSetInvalid, l.path, err)
	}

	if err := domain.ValidateGoldenSet(cases); err != nil {
		return nil, err
	}
	return cases, nil
}
