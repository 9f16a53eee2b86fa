package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/ragguard/internal/core/domain"
	"github.com/custodia-labs/ragguard/internal/core/ports/driven"
)

// --- Shared fakes for service tests ---

var errBoom = errors.New("boom")

// mockCorpus implements driven.Corpus over an in-memory map.
type mockCorpus struct {
	mu      sync.Mutex
	docs    map[string]string
	readErr map[string]error
	listErr error
	changes chan struct{}
}

func newMockCorpus(docs map[string]string) *mockCorpus {
	if docs == nil {
		docs = make(map[string]string)
	}
	return &mockCorpus{docs: docs, readErr: make(map[string]error)}
}

func (m *mockCorpus) set(id, content string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[id] = content
}

func (m *mockCorpus) remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.docs, id)
}

func (m *mockCorpus) List(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	ids := make([]string, 0, len(m.docs))
	for id := range m.docs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (m *mockCorpus) Read(_ context.Context, id string) (*domain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.readErr[id]; err != nil {
		return nil, err
	}
	content, ok := m.docs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &domain.Document{
		ID:          id,
		Path:        id,
		Content:     []byte(content),
		Fingerprint: domain.Fingerprint([]byte(content)),
	}, nil
}

func (m *mockCorpus) Watch(_ context.Context) (<-chan struct{}, error) {
	if m.changes == nil {
		return nil, errBoom
	}
	return m.changes, nil
}

// mockManifests implements driven.ManifestStore.
type mockManifests struct {
	manifest domain.Manifest
	loadErr  error
	saveErr  error
	saves    int
}

func (m *mockManifests) Load(_ context.Context) (domain.Manifest, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return m.manifest.Clone(), nil
}

func (m *mockManifests) Save(_ context.Context, manifest domain.Manifest) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	m.manifest = manifest.Clone()
	return nil
}

// paragraphChunker splits text on blank lines.
type paragraphChunker struct {
	err error
}

func (c paragraphChunker) Chunk(text string) ([]string, error) {
	if c.err != nil {
		return nil, c.err
	}
	var out []string
	for _, p := range strings.Split(text, "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out, nil
}

// mockIndex implements driven.VectorIndex and records every mutation.
type mockIndex struct {
	mu        sync.Mutex
	chunks    map[string]domain.Chunk
	ops       []string
	hits      []driven.Hit
	search    func(text string) []driven.Hit
	upsertErr error
	deleteErr error
	queryErr  error
}

func newMockIndex() *mockIndex {
	return &mockIndex{chunks: make(map[string]domain.Chunk)}
}

func (m *mockIndex) Upsert(_ context.Context, chunks []domain.Chunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.upsertErr != nil {
		return m.upsertErr
	}
	for _, c := range chunks {
		m.chunks[c.ID] = c
		m.ops = append(m.ops, "upsert:"+c.ID)
	}
	return nil
}

func (m *mockIndex) Delete(_ context.Context, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return m.deleteErr
	}
	for _, id := range ids {
		delete(m.chunks, id)
		m.ops = append(m.ops, "delete:"+id)
	}
	return nil
}

func (m *mockIndex) IDsBySource(_ context.Context, source string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []string
	for id, c := range m.chunks {
		if c.Meta.Source == source {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (m *mockIndex) Query(_ context.Context, text string, topK int) ([]driven.Hit, error) {
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	hits := m.hits
	if m.search != nil {
		hits = m.search(text)
	}
	if topK < len(hits) {
		return hits[:topK], nil
	}
	return hits, nil
}

func (m *mockIndex) Count(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.chunks), nil
}

func (m *mockIndex) Close() error { return nil }

func (m *mockIndex) ids() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.chunks))
	for id := range m.chunks {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func hit(id, source, text string, distance float64) driven.Hit {
	return driven.Hit{ID: id, Text: text, Meta: domain.ChunkMeta{Source: source}, Distance: distance}
}

// mockScorer implements driven.RelevanceScorer with a lookup function.
type mockScorer struct {
	score func(query, text string) float64
	err   error
	calls int
	short bool
}

func (m *mockScorer) Score(_ context.Context, query string, texts []string) ([]float64, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	scores := make([]float64, len(texts))
	for i, t := range texts {
		scores[i] = m.score(query, t)
	}
	if m.short && len(scores) > 0 {
		scores = scores[:len(scores)-1]
	}
	return scores, nil
}

func (m *mockScorer) ModelName() string { return "mock-scorer" }

// keywordScorer scores 1 when the text contains the query, else a fixed base.
func keywordScorer(base float64) *mockScorer {
	return &mockScorer{score: func(query, text string) float64 {
		if strings.Contains(strings.ToLower(text), strings.ToLower(query)) {
			return 1
		}
		return base
	}}
}

// mockSink implements driven.EventSink.
type mockSink struct {
	mu        sync.Mutex
	path      string
	records   []any
	appendErr error
	closeErr  error
	closed    bool
}

func (m *mockSink) Append(_ context.Context, record any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.appendErr != nil {
		return m.appendErr
	}
	m.records = append(m.records, record)
	return nil
}

func (m *mockSink) Path() string { return m.path }

func (m *mockSink) Close() error {
	m.closed = true
	return m.closeErr
}

// mockArchive implements driven.RunArchive.
type mockArchive struct {
	logs    map[string]*mockSink
	reports map[string]any
	latest  string
	golden  []domain.GoldenEvent
	queries []domain.QueryEvent
	openErr error
	saveErr error
	readErr error
}

func newMockArchive() *mockArchive {
	return &mockArchive{
		logs:    make(map[string]*mockSink),
		reports: make(map[string]any),
	}
}

func (m *mockArchive) OpenRunLog(_ context.Context, name string) (driven.EventSink, error) {
	if m.openErr != nil {
		return nil, m.openErr
	}
	sink := &mockSink{path: "logs/" + name}
	m.logs[name] = sink
	return sink, nil
}

func (m *mockArchive) SaveReport(_ context.Context, name string, report any) (string, error) {
	if m.saveErr != nil {
		return "", m.saveErr
	}
	m.reports[name] = report
	return "reports/" + name, nil
}

func (m *mockArchive) LatestRunLog(_ context.Context, _ string) (string, error) {
	if m.latest == "" {
		return "", domain.ErrNotFound
	}
	return m.latest, nil
}

func (m *mockArchive) ReadGoldenEvents(_ context.Context, _ string) ([]domain.GoldenEvent, error) {
	if m.readErr != nil {
		return nil, m.readErr
	}
	return m.golden, nil
}

func (m *mockArchive) ReadQueryEvents(_ context.Context, _ string) ([]domain.QueryEvent, error) {
	if m.readErr != nil {
		return nil, m.readErr
	}
	return m.queries, nil
}

// onlySink returns the single run log opened on the archive.
func (m *mockArchive) onlySink() *mockSink {
	for _, s := range m.logs {
		return s
	}
	return nil
}

// mockLLM implements driven.LLMService.
type mockLLM struct {
	answer  string
	err     error
	prompts []string
}

func (m *mockLLM) Generate(_ context.Context, prompt string, _ driven.GenerateOptions) (string, error) {
	m.prompts = append(m.prompts, prompt)
	if m.err != nil {
		return "", m.err
	}
	return m.answer, nil
}

func (m *mockLLM) ModelName() string            { return "mock-llm" }
func (m *mockLLM) Ping(_ context.Context) error { return nil }
func (m *mockLLM) Close() error                 { return nil }

// mockPrompts implements driven.PromptStore.
type mockPrompts struct {
	templates map[string]string
}

func (m *mockPrompts) Load(name string) (string, error) {
	t, ok := m.templates[name]
	if !ok {
		return "", domain.ErrPromptTemplateMissing
	}
	return t, nil
}

func (m *mockPrompts) Reload() {}

// mockAnswerer implements Answerer with a fixed answer.
type mockAnswerer struct {
	answer string
	err    error
	calls  int
}

func (m *mockAnswerer) Answer(_ context.Context, _ string, _ []domain.Candidate) (string, error) {
	m.calls++
	return m.answer, m.err
}

func (m *mockAnswerer) Live() bool { return true }
