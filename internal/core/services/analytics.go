package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/ragguard/internal/core/domain"
	"github.com/custodia-labs/ragguard/internal/core/ports/driven"
	"github.com/custodia-labs/ragguard/internal/core/ports/driving"
)

// Ensure Analyzer implements the interface.
var _ driving.Analyzer = (*Analyzer)(nil)

// topN bounds the counted lists in analytics summaries.
const topN = 10

// Analyzer summarises evaluation run logs and the live query log.
type Analyzer struct {
	archive  driven.RunArchive
	queryLog string
}

// NewAnalyzer creates an analyzer reading run logs from archive and live
// query events from queryLog.
func NewAnalyzer(archive driven.RunArchive, queryLog string) *Analyzer {
	return &Analyzer{
		archive:  archive,
		queryLog: queryLog,
	}
}

// Summarize analyses the latest run log and the query log and saves the summary.
// A missing run log is noted in the summary rather than failing.
func (a *Analyzer) Summarize(ctx context.Context) (*domain.AnalyticsSummary, error) {
	summary := &domain.AnalyticsSummary{}

	path, err := a.archive.LatestRunLog(ctx, RunLogPrefix)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		summary.Golden = domain.GoldenAnalysis{Error: "golden log not found"}
	case err != nil:
		return nil, fmt.Errorf("find run log: %w", err)
	default:
		events, err := a.archive.ReadGoldenEvents(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("read run log: %w", err)
		}
		summary.Golden = AnalyzeGolden(events)
		summary.Golden.LogPath = path
	}

	queries, err := a.archive.ReadQueryEvents(ctx, a.queryLog)
	if err != nil {
		return nil, fmt.Errorf("read query log: %w", err)
	}
	summary.Queries = AnalyzeQueries(queries)
	summary.Queries.LogPath = a.queryLog

	saved, err := a.archive.SaveReport(ctx, SummaryFileName, summary)
	if err != nil {
		return nil, fmt.Errorf("save summary: %w", err)
	}
	summary.SummaryPath = saved

	return summary, nil
}

// AnalyzeGolden counts failures per topic and the sources that were found
// for failed cases when none of the expected sources were.
func AnalyzeGolden(events []domain.GoldenEvent) domain.GoldenAnalysis {
	byTopic := make(map[string]int)
	irrelevant := make(map[string]int)
	failures := 0

	for _, ev := range events {
		if ev.IsCorrect {
			continue
		}
		failures++

		topic := ev.Topic
		if topic == "" {
			topic = "unknown"
		}
		byTopic[topic]++

		if len(ev.ExpectedSources) > 0 && len(ev.FoundSources) > 0 && disjoint(ev.ExpectedSources, ev.FoundSources) {
			for _, src := range unique(ev.FoundSources) {
				irrelevant[src]++
			}
		}
	}

	return domain.GoldenAnalysis{
		Total:                len(events),
		Failures:             failures,
		FailureByTopic:       byTopic,
		TopIrrelevantSources: domain.TopCounts(irrelevant, topN),
	}
}

// AnalyzeQueries counts empty retrievals, unsuccessful answers and the
// most cited sources.
func AnalyzeQueries(events []domain.QueryEvent) domain.QueryAnalysis {
	sources := make(map[string]int)
	result := domain.QueryAnalysis{TotalQueries: len(events)}

	for _, ev := range events {
		if !ev.ChunksFound {
			result.NoChunksQueries++
		}
		if !ev.SuccessfulAnswer {
			result.UnsuccessfulAnswers++
		}
		for _, src := range ev.Sources {
			sources[src]++
		}
	}

	result.TopSources = domain.TopCounts(sources, topN)
	return result
}

func disjoint(a, b []string) bool {
	set := make(map[string]bool, len(a))
	for _, s := range a {
		set[s] = true
	}
	for _, s := range b {
		if set[s] {
			return false
		}
	}
	return true
}

func unique(items []string) []string {
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, s := range items {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
