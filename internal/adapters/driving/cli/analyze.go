package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Summarise evaluation failures and live queries",
	Long: `Reads the most recent golden run log and the live query log, and
reports failures by topic, sources that were retrieved for the wrong
questions, and the sources live users hit most.

The summary is saved to reports/analytics_summary.json.`,
	Args: cobra.NoArgs,
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, _ []string) error {
	if analyzer == nil {
		return errors.New("analytics service not configured")
	}

	ctx := commandContext(cmd)

	summary, err := analyzer.Summarize(ctx)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	renderSummary(cmd, summary)
	return nil
}
