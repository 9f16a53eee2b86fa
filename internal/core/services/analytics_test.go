package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragguard/internal/core/domain"
)

// TestAnalyzeGolden tests failure breakdowns.
func TestAnalyzeGolden(t *testing.T) {
	events := []domain.GoldenEvent{
		{ID: "1", Topic: "billing", IsCorrect: true},
		{ID: "2", Topic: "billing", ExpectedSources: []string{"a.md"}, FoundSources: []string{"x.md", "y.md"}},
		{ID: "3", Topic: "", ExpectedSources: []string{"b.md"}, FoundSources: []string{"x.md", "x.md"}},
		{ID: "4", Topic: "shipping", ExpectedSources: []string{"c.md"}, FoundSources: []string{"c.md", "z.md"}},
		{ID: "5", Topic: "shipping"},
	}

	got := AnalyzeGolden(events)

	assert.Equal(t, 5, got.Total)
	assert.Equal(t, 4, got.Failures)
	assert.Equal(t, map[string]int{"billing": 1, "unknown": 1, "shipping": 2}, got.FailureByTopic)
	assert.Equal(t, []domain.Count{{Key: "x.md", Count: 2}, {Key: "y.md", Count: 1}}, got.TopIrrelevantSources)
}

// TestAnalyzeQueries tests live query statistics.
func TestAnalyzeQueries(t *testing.T) {
	events := []domain.QueryEvent{
		{ChunksFound: true, SuccessfulAnswer: true, Sources: []string{"a.md", "b.md"}},
		{ChunksFound: true, SuccessfulAnswer: false, Sources: []string{"a.md"}},
		{ChunksFound: false, SuccessfulAnswer: false, Sources: []string{}},
	}

	got := AnalyzeQueries(events)

	assert.Equal(t, 3, got.TotalQueries)
	assert.Equal(t, 1, got.NoChunksQueries)
	assert.Equal(t, 2, got.UnsuccessfulAnswers)
	assert.Equal(t, []domain.Count{{Key: "a.md", Count: 2}, {Key: "b.md", Count: 1}}, got.TopSources)
}

// TestAnalyzer_Summarize tests the saved summary.
func TestAnalyzer_Summarize(t *testing.T) {
	archive := newMockArchive()
	archive.latest = "logs/golden_run_20260101T000000Z.jsonl"
	archive.golden = []domain.GoldenEvent{{ID: "1", Topic: "t"}}
	archive.queries = []domain.QueryEvent{{ChunksFound: true, SuccessfulAnswer: true}}

	summary, err := NewAnalyzer(archive, "logs/query_logs.jsonl").Summarize(context.Background())
	require.NoError(t, err)

	assert.Equal(t, archive.latest, summary.Golden.LogPath)
	assert.Equal(t, 1, summary.Golden.Failures)
	assert.Equal(t, "logs/query_logs.jsonl", summary.Queries.LogPath)
	assert.Equal(t, 1, summary.Queries.TotalQueries)
	assert.Equal(t, "reports/"+SummaryFileName, summary.SummaryPath)
	assert.Contains(t, archive.reports, SummaryFileName)
}

// TestAnalyzer_NoRunLog tests that a missing run log is reported, not fatal.
func TestAnalyzer_NoRunLog(t *testing.T) {
	archive := newMockArchive()

	summary, err := NewAnalyzer(archive, "logs/query_logs.jsonl").Summarize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "golden log not found", summary.Golden.Error)
	assert.Zero(t, summary.Queries.TotalQueries)
}

// TestAnalyzer_ReadError tests that unreadable logs fail the summary.
func TestAnalyzer_ReadError(t *testing.T) {
	archive := newMockArchive()
	archive.latest = "logs/golden_run_x.jsonl"
	archive.readErr = errBoom

	_, err := NewAnalyzer(archive, "q.jsonl").Summarize(context.Background())
	assert.ErrorIs(t, err, errBoom)
}
