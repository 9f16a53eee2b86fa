package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/custodia-labs/ragguard/internal/core/domain"
	"github.com/custodia-labs/ragguard/internal/core/ports/driven"
	"github.com/custodia-labs/ragguard/internal/core/ports/driving"
	"github.com/custodia-labs/ragguard/internal/logger"
)

// Ensure IndexScheduler implements the interface.
var _ driving.Scheduler = (*IndexScheduler)(nil)

// DefaultHistory is how many runs are kept when no limit is configured.
const DefaultHistory = 20

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ParseSchedule validates a five-field cron expression or descriptor.
func ParseSchedule(expr string) error {
	if _, err := cronParser.Parse(expr); err != nil {
		return fmt.Errorf("%w: schedule %q: %v", domain.ErrConfigInvalid, expr, err)
	}
	return nil
}

// SchedulerOption configures an IndexScheduler.
type SchedulerOption func(*IndexScheduler)

// WithCron runs indexing on a cron schedule.
func WithCron(expr string) SchedulerOption {
	return func(s *IndexScheduler) {
		s.cronExpr = expr
	}
}

// WithWatch runs indexing when the corpus changes, waiting for the
// debounce period to pass without further changes.
func WithWatch(corpus driven.Corpus, debounce time.Duration) SchedulerOption {
	return func(s *IndexScheduler) {
		s.watch = corpus
		s.debounce = debounce
	}
}

// WithHistory sets how many runs are retained.
func WithHistory(n int) SchedulerOption {
	return func(s *IndexScheduler) {
		if n > 0 {
			s.historyLimit = n
		}
	}
}

// WithRunStore persists every run and seeds history from the store on start.
func WithRunStore(store driven.RunHistoryStore) SchedulerOption {
	return func(s *IndexScheduler) {
		s.store = store
	}
}

// IndexScheduler runs the indexer on a cron schedule and on corpus changes.
// Runs never overlap: a cron tick that fires while a run is active is
// recorded as skipped, while corpus changes are retried until a run picks
// them up.
type IndexScheduler struct {
	indexer      driving.Indexer
	cronExpr     string
	watch        driven.Corpus
	debounce     time.Duration
	historyLimit int
	store        driven.RunHistoryStore
	now          func() time.Time

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	history []domain.IndexRun
	wg      sync.WaitGroup
}

// NewIndexScheduler creates a scheduler around an indexer.
func NewIndexScheduler(indexer driving.Indexer, opts ...SchedulerOption) (*IndexScheduler, error) {
	s := &IndexScheduler{
		indexer:      indexer,
		historyLimit: DefaultHistory,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.cronExpr == "" && s.watch == nil {
		return nil, fmt.Errorf("%w: scheduler needs a cron expression or a watched corpus", domain.ErrInvalidInput)
	}
	if s.cronExpr != "" {
		if err := ParseSchedule(s.cronExpr); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Start begins scheduled and watched indexing. This method blocks until
// Stop is called or the context is cancelled.
func (s *IndexScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil // Already running
	}
	s.running = true
	s.stopCh = make(chan struct{})
	stopCh := s.stopCh
	s.mu.Unlock()

	s.restoreHistory(ctx)

	var c *cron.Cron
	if s.cronExpr != "" {
		c = cron.New(cron.WithParser(cronParser))
		if _, err := c.AddFunc(s.cronExpr, func() { s.Trigger(ctx, domain.TriggerSchedule) }); err != nil {
			s.markStopped()
			return fmt.Errorf("%w: %v", domain.ErrConfigInvalid, err)
		}
		c.Start()
		logger.Info("Scheduled indexing: %s", s.cronExpr)
	}

	var changes <-chan struct{}
	if s.watch != nil {
		ch, err := s.watch.Watch(ctx)
		if err != nil {
			if c != nil {
				<-c.Stop().Done()
			}
			s.markStopped()
			return fmt.Errorf("watch corpus: %w", err)
		}
		changes = ch
		logger.Info("Watching corpus for changes (debounce %s)", s.debounce)
	}

	err := s.loop(ctx, stopCh, changes)

	if c != nil {
		<-c.Stop().Done()
	}
	s.wg.Wait()
	s.markStopped()
	return err
}

// loop coalesces change notifications and triggers a run once the corpus
// has been quiet for the debounce period. At most one watch run is in
// flight; changes that settle while it runs queue exactly one follow-up run,
// and a watch run skipped because another run held the index is retried
// after the next debounce period.
func (s *IndexScheduler) loop(ctx context.Context, stopCh <-chan struct{}, changes <-chan struct{}) error {
	timer := time.NewTimer(time.Hour)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	// Buffered so a run finishing after the loop returns never blocks.
	watchDone := make(chan bool, 1)
	inFlight, pending := false, false
	startWatchRun := func() {
		inFlight = true
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			run := s.Trigger(ctx, domain.TriggerWatch)
			watchDone <- run.Skipped
		}()
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stopCh:
			return nil
		case _, ok := <-changes:
			if !ok {
				changes = nil
				continue
			}
			logger.Debug("Corpus change detected")
			timer.Reset(s.debounce)
		case <-timer.C:
			if inFlight {
				pending = true
				logger.Debug("Watch run in progress; queueing another")
				continue
			}
			startWatchRun()
		case skipped := <-watchDone:
			inFlight = false
			switch {
			case skipped:
				pending = false
				timer.Reset(s.debounce)
			case pending:
				pending = false
				startWatchRun()
			}
		}
	}
}

// Stop gracefully shuts down the scheduler.
func (s *IndexScheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running || s.stopCh == nil {
		return nil
	}
	select {
	case <-s.stopCh:
	default:
		close(s.stopCh)
	}
	return nil
}

func (s *IndexScheduler) markStopped() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
}

// Trigger runs the indexer once and records the outcome.
func (s *IndexScheduler) Trigger(ctx context.Context, trigger domain.Trigger) domain.IndexRun {
	run := domain.IndexRun{
		Trigger:   trigger,
		StartedAt: s.now(),
	}

	report, err := s.indexer.Run(ctx)
	run.EndedAt = s.now()
	switch {
	case errors.Is(err, domain.ErrIndexInProgress):
		run.Skipped = true
		logger.Warn("Skipping %s run: indexing already in progress", trigger)
	case err != nil:
		run.Error = err.Error()
		logger.Error("Indexing (%s) failed: %v", trigger, err)
	default:
		run.Report = report
	}

	s.record(run)
	if s.store != nil {
		if err := s.store.SaveRun(ctx, run); err != nil {
			logger.Warn("Failed to persist %s run: %v", trigger, err)
		}
	}
	return run
}

// restoreHistory loads previous runs so History survives restarts.
func (s *IndexScheduler) restoreHistory(ctx context.Context) {
	if s.store == nil {
		return
	}
	runs, err := s.store.RecentRuns(ctx, s.historyLimit)
	if err != nil {
		logger.Warn("Failed to load run history: %v", err)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.history) == 0 {
		s.history = runs
	}
}

func (s *IndexScheduler) record(run domain.IndexRun) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, run)
	if over := len(s.history) - s.historyLimit; over > 0 {
		s.history = append([]domain.IndexRun(nil), s.history[over:]...)
	}
}

// History returns recent runs, newest last.
func (s *IndexScheduler) History() []domain.IndexRun {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.IndexRun(nil), s.history...)
}
