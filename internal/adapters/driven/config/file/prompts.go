package file

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"github.com/custodia-labs/ragguard/internal/core/domain"
	"github.com/custodia-labs/ragguard/internal/core/ports/driven"
)

// Ensure PromptStore implements the interface.
var _ driven.PromptStore = (*PromptStore)(nil)

//go:embed prompts/answer.txt
var defaultAnswerPrompt string

// defaultPrompts contains embedded default prompts.
var defaultPrompts = map[string]string{
	driven.PromptAnswer: defaultAnswerPrompt,
}

// PromptStore serves the answer template from a user file or, when none
// is configured, from the embedded default.
type PromptStore struct {
	mu    sync.RWMutex
	path  string
	cache map[string]string
}

// NewPromptStore creates a prompt store. A configured path must exist:
// a missing template is a startup error, never a silent fallback.
func NewPromptStore(path string) (*PromptStore, error) {
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("%w: %s", domain.ErrPromptTemplateMissing, path)
			}
			return nil, fmt.Errorf("checking prompt template: %w", err)
		}
	}
	return &PromptStore{
		path:  path,
		cache: make(map[string]string),
	}, nil
}

// Load returns the prompt template for the given name.
func (s *PromptStore) Load(name string) (string, error) {
	s.mu.RLock()
	if prompt, ok := s.cache[name]; ok {
		s.mu.RUnlock()
		return prompt, nil
	}
	s.mu.RUnlock()

	prompt, err := s.load(name)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	if cached, ok := s.cache[name]; ok {
		prompt = cached
	} else {
		s.cache[name] = prompt
	}
	s.mu.Unlock()

	return prompt, nil
}

// Reload clears the prompt cache, forcing fresh loads from disk.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	s.cache = make(map[string]string)
	s.mu.Unlock()
}

// Path returns the configured template path, empty for the embedded default.
func (s *PromptStore) Path() string {
	return s.path
}

func (s *PromptStore) load(name string) (string, error) {
	if name == driven.PromptAnswer && s.path != "" {
		data, err := os.ReadFile(s.path)
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", domain.ErrPromptTemplateMissing, s.path)
		}
		if err != nil {
			return "", fmt.Errorf("reading prompt template: %w", err)
		}
		return string(data), nil
	}

	if prompt, ok := defaultPrompts[name]; ok {
		return prompt, nil
	}
	return "", fmt.Errorf("%w: %q", domain.ErrPromptTemplateMissing, name)
}
