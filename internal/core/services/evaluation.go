package services

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/custodia-labs/ragguard/internal/core/domain"
	"github.com/custodia-labs/ragguard/internal/core/ports/driven"
	"github.com/custodia-labs/ragguard/internal/core/ports/driving"
	"github.com/custodia-labs/ragguard/internal/logger"
)

// Ensure Evaluator implements the interface.
var _ driving.Evaluator = (*Evaluator)(nil)

// Run artefact names.
const (
	RunLogPrefix    = "golden_run_"
	ReportPrefix    = "golden_report_"
	RunStampLayout  = "20060102T150405.000000000Z"
	SummaryFileName = "analytics_summary.json"
)

// runStamp names the artefacts of one run. Names sort by start time, and
// the run id suffix keeps two runs started in the same instant apart.
func runStamp(started time.Time, runID string) string {
	if len(runID) > 8 {
		runID = runID[:8]
	}
	return started.Format(RunStampLayout) + "_" + runID
}

// EvalConfig holds the evaluation limits.
type EvalConfig struct {
	// TopK is how many candidates retrieval returns per case.
	TopK int

	// ContextLimit caps how many candidates reach the answerer.
	ContextLimit int
}

// Evaluator replays golden cases through retrieval, reranking, optional
// defense and answering, then scores them.
type Evaluator struct {
	retriever *Retriever
	defense   *InjectionDefense
	answerer  Answerer
	archive   driven.RunArchive
	policy    domain.AnswerPolicy
	cfg       EvalConfig

	now   func() time.Time
	newID func() string
}

// NewEvaluator creates an evaluation harness.
// The defense stage is optional - if nil, candidates are not screened.
func NewEvaluator(
	retriever *Retriever,
	defense *InjectionDefense,
	answerer Answerer,
	archive driven.RunArchive,
	policy domain.AnswerPolicy,
	cfg EvalConfig,
) *Evaluator {
	return &Evaluator{
		retriever: retriever,
		defense:   defense,
		answerer:  answerer,
		archive:   archive,
		policy:    policy,
		cfg:       cfg,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// Run evaluates every case, appends one event per case to a fresh run log
// and saves the aggregate report.
func (e *Evaluator) Run(ctx context.Context, cases []domain.GoldenCase) (report *domain.GoldenReport, err error) {
	if err := domain.ValidateGoldenSet(cases); err != nil {
		return nil, err
	}

	started := e.now().UTC()
	runID := e.newID()
	stamp := runStamp(started, runID)

	runLog, err := e.archive.OpenRunLog(ctx, RunLogPrefix+stamp+".jsonl")
	if err != nil {
		return nil, fmt.Errorf("open run log: %w", err)
	}
	defer func() {
		if cerr := runLog.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("close run log: %w", cerr))
		}
	}()

	report = &domain.GoldenReport{
		RunID:          runID,
		StartedAt:      started.Format(time.RFC3339),
		RunLogPath:     runLog.Path(),
		RunWithLLM:     e.answerer.Live(),
		DefenseEnabled: e.defense != nil,
	}

	logger.Info("Evaluating %d golden cases (run %s)", len(cases), report.RunID)

	for _, c := range cases {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		event, err := e.evaluate(ctx, c)
		if err != nil {
			return nil, fmt.Errorf("case %s: %w", c.ID, err)
		}
		event.RunID = report.RunID

		report.Tally(c, event.ChunksFound, event.IsCorrect)
		if err := runLog.Append(ctx, event); err != nil {
			return nil, fmt.Errorf("append case %s: %w", c.ID, err)
		}

		logger.Debug("Case %s [%s]: chunks=%t correct=%t", c.ID, c.Topic, event.ChunksFound, event.IsCorrect)
	}

	report.Finalise()

	path, err := e.archive.SaveReport(ctx, ReportPrefix+stamp+".json", report)
	if err != nil {
		return nil, fmt.Errorf("save report: %w", err)
	}
	report.ReportPath = path

	logger.Info("Evaluation complete: accuracy=%.4f known_recall=%.4f missing_rejection_rate=%.4f",
		report.Accuracy, report.KnownRecall, report.MissingRejectionRate)
	return report, nil
}

// evaluate runs one case through the pipeline and scores it.
func (e *Evaluator) evaluate(ctx context.Context, c domain.GoldenCase) (domain.GoldenEvent, error) {
	cands, err := e.retriever.Retrieve(ctx, c.Question, e.cfg.TopK)
	if err != nil {
		return domain.GoldenEvent{}, err
	}

	cands, err = e.retriever.Rerank(ctx, c.Question, cands)
	if err != nil {
		return domain.GoldenEvent{}, err
	}

	if e.defense != nil && len(cands) > 0 {
		screening, err := e.defense.Screen(ctx, cands)
		if err != nil {
			return domain.GoldenEvent{}, err
		}
		cands = screening.Safe
	}

	chunks := domain.Cap(cands, e.cfg.ContextLimit)
	chunksFound := len(chunks) > 0

	// An empty context never reaches the generator.
	answer := FallbackInsufficient
	if chunksFound {
		answer, err = e.answerer.Answer(ctx, c.Question, chunks)
		if err != nil {
			return domain.GoldenEvent{}, err
		}
	}

	expected := c.ExpectedSources
	if expected == nil {
		expected = []string{}
	}

	return domain.GoldenEvent{
		Timestamp:        e.now().UTC().Format(time.RFC3339Nano),
		ID:               c.ID,
		Question:         c.Question,
		Topic:            c.Topic,
		ShouldAnswer:     c.ShouldAnswer,
		ExpectedSources:  expected,
		FoundSources:     domain.Sources(chunks),
		ChunksFound:      chunksFound,
		AnswerLength:     utf8.RuneCountInString(answer),
		SuccessfulAnswer: e.policy.IsSuccessfulAnswer(answer, chunksFound),
		AnswerText:       answer,
		IsCorrect:        domain.ScoreCase(e.policy, c, chunksFound, answer),
	}, nil
}
