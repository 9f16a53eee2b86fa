package cli

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragguard/internal/adapters/driven/ai"
	"github.com/custodia-labs/ragguard/internal/adapters/driven/config/file"
	"github.com/custodia-labs/ragguard/internal/adapters/driven/corpus/filesystem"
	"github.com/custodia-labs/ragguard/internal/adapters/driven/eventlog/jsonl"
	golden "github.com/custodia-labs/ragguard/internal/adapters/driven/golden/file"
	manifest "github.com/custodia-labs/ragguard/internal/adapters/driven/manifest/file"
	"github.com/custodia-labs/ragguard/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/ragguard/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/ragguard/internal/core/domain"
	"github.com/custodia-labs/ragguard/internal/core/ports/driven"
	"github.com/custodia-labs/ragguard/internal/core/ports/driving"
	"github.com/custodia-labs/ragguard/internal/core/services"
	"github.com/custodia-labs/ragguard/internal/logger"
	"github.com/custodia-labs/ragguard/internal/postprocessors/chunker"
)

// active holds the resources wired for the running command.
var active *wiring

// bootstrapServices loads configuration, applies the log settings and wires
// every service cmd may need.
func bootstrapServices(cmd *cobra.Command) error {
	if annotated(cmd, annotationNoConfig) {
		return nil
	}

	s, err := file.NewConfigStore(configPath).Load()
	if err != nil {
		return err
	}
	logger.SetLevel(s.Log.Level)
	if err := logger.SetFormat(s.Log.Format); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrConfigInvalid, err)
	}
	logger.SetVerbose(verbose)
	settings = s

	if annotated(cmd, annotationNoServices) {
		return nil
	}

	w, err := newWiring(s)
	if err != nil {
		return err
	}
	closeServices()
	active = w

	indexer = services.NewIndexer(w.corpus, w.manifests, w.chunker, w.openIndex)
	analyzer = services.NewAnalyzer(w.archive, s.Events.QueryLog)
	watchedCorpus = w.corpus
	gaps = w.corpus
	queryServiceFor = w.queryService
	evaluatorFor = w.evaluator
	runHistoryFor = w.runHistory
	return nil
}

// closeServices releases whatever the last bootstrap opened.
func closeServices() {
	if active == nil {
		return
	}
	if err := active.Close(); err != nil {
		logger.Warn("Failed to release resources: %v", err)
	}
	active = nil
}

// wiring builds services from settings. The sqlite store, and with it the
// embedding model, is opened on first use so that commands which never
// touch the index do not pay for it.
type wiring struct {
	settings  domain.Settings
	corpus    *filesystem.Corpus
	manifests driven.ManifestStore
	chunker   driven.Chunker
	embedder  driven.EmbeddingService
	scorer    driven.RelevanceScorer
	prompts   driven.PromptStore
	archive   *jsonl.Archive

	// memory backend
	memIndex *memory.VectorIndex
	memRuns  *memory.RunHistoryStore

	mu      sync.Mutex
	store   *sqlite.Store
	closers []func() error
}

func newWiring(s domain.Settings) (*wiring, error) {
	// A configured template that does not exist is fatal before any work.
	prompts, err := file.NewPromptStore(s.LLM.PromptTemplate)
	if err != nil {
		return nil, err
	}

	embedder, err := ai.CreateEmbeddingService(&s.Embedding)
	if err != nil {
		return nil, fmt.Errorf("embedding: %w", err)
	}

	scorer, err := ai.CreateRelevanceScorer(&s.Rerank)
	if err != nil {
		_ = embedder.Close()
		return nil, fmt.Errorf("rerank: %w", err)
	}

	w := &wiring{
		settings: s,
		corpus: filesystem.New(filesystem.Config{
			Dir:        s.Corpus.Dir,
			Extensions: s.Corpus.Extensions,
			GapsDir:    s.Corpus.GapsDir,
		}),
		chunker: chunker.New(
			chunker.WithChunkSize(s.Index.ChunkSize),
			chunker.WithOverlap(s.Index.ChunkOverlap),
		),
		embedder: embedder,
		scorer:   scorer,
		prompts:  prompts,
		archive:  jsonl.NewArchive(s.Eval.LogsDir, s.Eval.ReportsDir),
	}
	w.closers = append(w.closers, embedder.Close)

	if s.Index.Backend == domain.IndexBackendMemory {
		w.memIndex = memory.NewVectorIndex(embedder)
		w.memRuns = memory.NewRunHistoryStore()
		w.manifests = memory.NewManifestStore()
	} else {
		w.manifests = manifest.NewStore(s.Index.Manifest)
	}

	return w, nil
}

// openStore opens the sqlite store once.
func (w *wiring) openStore() (*sqlite.Store, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.store != nil {
		return w.store, nil
	}
	store, err := sqlite.NewStore(w.settings.Index.Path)
	if err != nil {
		return nil, err
	}
	w.store = store
	return store, nil
}

// openIndex returns the vector index for the configured backend.
func (w *wiring) openIndex(_ context.Context) (driven.VectorIndex, error) {
	if w.memIndex != nil {
		return w.memIndex, nil
	}
	store, err := w.openStore()
	if err != nil {
		return nil, err
	}
	return store.VectorIndex(w.settings.Index.Collection, w.embedder), nil
}

// runHistory returns the store that persists scheduled runs.
func (w *wiring) runHistory() (driven.RunHistoryStore, error) {
	if w.memRuns != nil {
		return w.memRuns, nil
	}
	store, err := w.openStore()
	if err != nil {
		return nil, err
	}
	return store.RunHistory(), nil
}

// retrieval builds the retriever and defense stage over the index.
func (w *wiring) retrieval(ctx context.Context) (*services.Retriever, *services.InjectionDefense, error) {
	index, err := w.openIndex(ctx)
	if err != nil {
		return nil, nil, err
	}
	if err := w.warm(ctx, index); err != nil {
		return nil, nil, err
	}
	defense := services.NewInjectionDefense(w.scorer, services.DefenseConfig{
		Probes:    w.settings.Defense.Probes,
		Threshold: w.settings.Defense.Threshold,
		AuditTop:  w.settings.Defense.AuditTop,
	})
	return services.NewRetriever(index, w.scorer), defense, nil
}

// warm fills an empty in-memory index from the corpus, since nothing
// survives between invocations on the memory backend.
func (w *wiring) warm(ctx context.Context, index driven.VectorIndex) error {
	if w.memIndex == nil {
		return nil
	}
	n, err := index.Count(ctx)
	if err != nil || n > 0 {
		return err
	}
	logger.Info("Building in-memory index from %s", w.corpus.Dir())
	_, err = services.NewIndexer(w.corpus, w.manifests, w.chunker, w.openIndex).Run(ctx)
	return err
}

// answerer returns the LLM answerer when live, otherwise the deterministic fallback.
func (w *wiring) answerer(ctx context.Context, live bool) (services.Answerer, error) {
	if !live {
		return services.NewFallbackAnswerer(), nil
	}
	llm, err := ai.CreateAndValidateLLMService(ctx, &w.settings.LLM)
	if err != nil {
		return nil, err
	}
	w.addCloser(llm.Close)
	return services.NewLLMAnswerer(llm, services.NewPromptComposer(w.prompts), ai.GenerateOptions(&w.settings.LLM)), nil
}

func (w *wiring) queryService(ctx context.Context, live bool) (driving.QueryService, error) {
	retriever, defense, err := w.retrieval(ctx)
	if err != nil {
		return nil, err
	}
	answerer, err := w.answerer(ctx, live)
	if err != nil {
		return nil, err
	}
	sink, err := jsonl.OpenSink(w.settings.Events.QueryLog)
	if err != nil {
		return nil, err
	}
	w.addCloser(sink.Close)

	recorder := services.NewEventRecorder(sink, w.settings.Answers.Policy())
	return services.NewQueryService(retriever, defense, answerer, recorder, services.QueryConfig{
		TopK:         w.settings.Retrieval.TopK,
		ContextLimit: w.settings.Retrieval.ContextLimit,
	}), nil
}

func (w *wiring) evaluator(ctx context.Context, live, useDefense bool) (driving.Evaluator, error) {
	retriever, defense, err := w.retrieval(ctx)
	if err != nil {
		return nil, err
	}
	if !useDefense {
		defense = nil
	}
	answerer, err := w.answerer(ctx, live)
	if err != nil {
		return nil, err
	}
	return services.NewEvaluator(retriever, defense, answerer, w.archive, w.settings.Answers.Policy(), services.EvalConfig{
		TopK:         w.settings.Retrieval.TopK,
		ContextLimit: w.settings.Retrieval.ContextLimit,
	}), nil
}

func (w *wiring) addCloser(fn func() error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closers = append(w.closers, fn)
}

// Close releases resources in reverse order of acquisition.
func (w *wiring) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	var errs []error
	for i := len(w.closers) - 1; i >= 0; i-- {
		if err := w.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	w.closers = nil
	if w.store != nil {
		if err := w.store.Close(); err != nil {
			errs = append(errs, err)
		}
		w.store = nil
	}
	return errors.Join(errs...)
}

// loadGoldenFile is the default golden set loader.
func loadGoldenFile(ctx context.Context, path string) ([]domain.GoldenCase, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: no golden set configured", domain.ErrGoldenSetInvalid)
	}
	return golden.NewLoader(path).Load(ctx)
}
