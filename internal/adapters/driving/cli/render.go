package cli

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragguard/internal/core/domain"
)

// styles renders report output. Colours are dropped automatically when the
// command output is not a terminal.
type styles struct {
	title lipgloss.Style
	label lipgloss.Style
	good  lipgloss.Style
	warn  lipgloss.Style
	bad   lipgloss.Style
	faint lipgloss.Style
}

func newStyles(cmd *cobra.Command) styles {
	r := lipgloss.NewRenderer(cmd.OutOrStdout())
	return styles{
		title: r.NewStyle().Bold(true).Underline(true),
		label: r.NewStyle().Width(28),
		good:  r.NewStyle().Foreground(lipgloss.Color("2")),
		warn:  r.NewStyle().Foreground(lipgloss.Color("3")),
		bad:   r.NewStyle().Foreground(lipgloss.Color("1")),
		faint: r.NewStyle().Faint(true),
	}
}

func (s styles) row(cmd *cobra.Command, label string, value any) {
	cmd.Printf("%s %v\n", s.label.Render(label), value)
}

func (s styles) heading(cmd *cobra.Command, text string) {
	cmd.Println(s.title.Render(text))
}

func percent(v float64) string {
	return fmt.Sprintf("%.2f%%", v*100)
}

func renderPlan(cmd *cobra.Command, plan *domain.IndexPlan) {
	st := newStyles(cmd)
	st.heading(cmd, "Index plan")
	renderIDs(cmd, st, "New", plan.New, st.good)
	renderIDs(cmd, st, "Modified", plan.Modified, st.warn)
	renderIDs(cmd, st, "Deleted", plan.Deleted, st.bad)
	st.row(cmd, "Unchanged", len(plan.Unchanged))
	if len(plan.Unreadable) > 0 {
		renderIDs(cmd, st, "Unreadable", plan.Unreadable, st.bad)
	}
	if !plan.HasChanges() {
		cmd.Println(st.good.Render("Index is up to date."))
	}
}

func renderIDs(cmd *cobra.Command, st styles, label string, ids []string, style lipgloss.Style) {
	st.row(cmd, label, len(ids))
	for _, id := range ids {
		cmd.Printf("  %s\n", style.Render(id))
	}
}

func renderIndexReport(cmd *cobra.Command, report *domain.IndexReport) {
	st := newStyles(cmd)
	if report.NoOp {
		cmd.Println(st.good.Render("No changes detected, index is up to date."))
		return
	}

	st.heading(cmd, "Index updated")
	st.row(cmd, "New documents", len(report.Plan.New))
	st.row(cmd, "Modified documents", len(report.Plan.Modified))
	st.row(cmd, "Deleted documents", len(report.Plan.Deleted))
	st.row(cmd, "Unchanged documents", len(report.Plan.Unchanged))
	st.row(cmd, "Chunks written", report.ChunksWritten)
	st.row(cmd, "Chunks deleted", report.ChunksDeleted)
	st.row(cmd, "Duration", report.Duration.Round(time.Millisecond))

	for _, id := range report.SkippedEmpty {
		cmd.Println(st.warn.Render("empty, skipped: " + id))
	}
	failed := make([]string, 0, len(report.Failed))
	for id := range report.Failed {
		failed = append(failed, id)
	}
	sort.Strings(failed)
	for _, id := range failed {
		cmd.Println(st.bad.Render(fmt.Sprintf("failed: %s: %s", id, report.Failed[id])))
	}
	if !report.ManifestSaved {
		cmd.Println(st.bad.Render("Manifest was not saved; the next run will reprocess these documents."))
	}
}

func renderRun(cmd *cobra.Command, run domain.IndexRun) {
	st := newStyles(cmd)
	stamp := run.StartedAt.Format(time.RFC3339)
	switch {
	case run.Skipped:
		cmd.Printf("%s %s %s\n", stamp, run.Trigger, st.warn.Render("skipped, run in progress"))
	case run.Error != "":
		cmd.Printf("%s %s %s\n", stamp, run.Trigger, st.bad.Render(run.Error))
	case run.Report != nil && run.Report.NoOp:
		cmd.Printf("%s %s %s\n", stamp, run.Trigger, st.faint.Render("no changes"))
	case run.Report != nil:
		cmd.Printf("%s %s %s\n", stamp, run.Trigger, st.good.Render(fmt.Sprintf(
			"%d chunks written, %d deleted", run.Report.ChunksWritten, run.Report.ChunksDeleted)))
	default:
		cmd.Printf("%s %s\n", stamp, run.Trigger)
	}
}

func renderAnswer(cmd *cobra.Command, answer *domain.Answer) {
	st := newStyles(cmd)
	switch answer.Outcome {
	case domain.OutcomeAnswered:
		cmd.Println(answer.Text)
	case domain.OutcomeAllFiltered:
		cmd.Println(st.bad.Render(answer.Text))
	default:
		cmd.Println(st.warn.Render(answer.Text))
	}

	if len(answer.Sources) > 0 {
		cmd.Println()
		cmd.Println(st.faint.Render("Sources: " + strings.Join(answer.Sources, ", ")))
	}
	if answer.Blocked > 0 {
		cmd.Println(st.warn.Render(fmt.Sprintf("%d retrieved chunks were blocked as possible prompt injections.", answer.Blocked)))
	}
}

func renderGoldenReport(cmd *cobra.Command, report *domain.GoldenReport) {
	st := newStyles(cmd)
	st.heading(cmd, "Golden set evaluation")
	st.row(cmd, "Run", report.RunID)
	st.row(cmd, "Live generation", report.RunWithLLM)
	st.row(cmd, "Injection defense", report.DefenseEnabled)
	st.row(cmd, "Cases", report.Total)
	st.row(cmd, "Accuracy", fmt.Sprintf("%s (%d/%d)", percent(report.Accuracy), report.Correct, report.Total))
	st.row(cmd, "Known-answer recall",
		fmt.Sprintf("%s (%d/%d)", percent(report.KnownRecall), report.KnownCorrect, report.KnownTotal))
	st.row(cmd, "Missing-info rejection", fmt.Sprintf("%s (%d/%d)",
		percent(report.MissingRejectionRate), report.MissingCorrectRejections, report.MissingTotal))
	st.row(cmd, "Cases without context", report.NoChunksCount)
	st.row(cmd, "Run log", report.RunLogPath)
	if report.ReportPath != "" {
		st.row(cmd, "Report", report.ReportPath)
	}
}

func renderSummary(cmd *cobra.Command, summary *domain.AnalyticsSummary) {
	st := newStyles(cmd)

	st.heading(cmd, "Golden run")
	if summary.Golden.Error != "" {
		cmd.Println(st.warn.Render(summary.Golden.Error))
	} else {
		st.row(cmd, "Log", summary.Golden.LogPath)
		st.row(cmd, "Cases", summary.Golden.Total)
		st.row(cmd, "Failures", summary.Golden.Failures)
		topics := make([]string, 0, len(summary.Golden.FailureByTopic))
		for topic := range summary.Golden.FailureByTopic {
			topics = append(topics, topic)
		}
		sort.Strings(topics)
		for _, topic := range topics {
			cmd.Printf("  %s: %d\n", topic, summary.Golden.FailureByTopic[topic])
		}
		renderCounts(cmd, st, "Irrelevant sources", summary.Golden.TopIrrelevantSources)
	}

	cmd.Println()
	st.heading(cmd, "Live queries")
	st.row(cmd, "Queries", summary.Queries.TotalQueries)
	st.row(cmd, "Without context", summary.Queries.NoChunksQueries)
	st.row(cmd, "Unsuccessful answers", summary.Queries.UnsuccessfulAnswers)
	renderCounts(cmd, st, "Top sources", summary.Queries.TopSources)

	if summary.SummaryPath != "" {
		cmd.Println()
		st.row(cmd, "Summary", summary.SummaryPath)
	}
}

func renderCounts(cmd *cobra.Command, st styles, label string, counts []domain.Count) {
	if len(counts) == 0 {
		return
	}
	cmd.Println(st.faint.Render(label + ":"))
	for _, c := range counts {
		cmd.Printf("  %-40s %d\n", c.Key, c.Count)
	}
}
