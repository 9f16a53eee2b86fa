package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	evalGolden    string
	evalLLM       bool
	evalDefense   bool
	evalNoDefense bool
)

var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Score the pipeline against the golden set",
	Long: `Replays every golden case through retrieval and reranking, answers it
and scores the answer: questions the knowledge base covers must be answered,
questions it does not cover must be declined.

Each case is appended to logs/golden_run_<timestamp>_<run>.jsonl and the
metrics are saved to reports/golden_report_<timestamp>_<run>.json.

Without --llm the answers are deterministic excerpts, so repeated runs over
the same index give identical metrics.`,
	Args: cobra.NoArgs,
	RunE: runEval,
}

func init() {
	evalCmd.Flags().StringVarP(&evalGolden, "golden", "g", "", "golden set file (default from config)")
	evalCmd.Flags().BoolVar(&evalLLM, "llm", false, "generate answers with the configured model")
	evalCmd.Flags().BoolVar(&evalDefense, "defense", false, "screen candidates with the injection defense")
	evalCmd.Flags().BoolVar(&evalNoDefense, "no-defense", false, "disable the injection defense even if configured")
	evalCmd.MarkFlagsMutuallyExclusive("defense", "no-defense")
	rootCmd.AddCommand(evalCmd)
}

func runEval(cmd *cobra.Command, _ []string) error {
	if evaluatorFor == nil {
		return errors.New("evaluation service not configured")
	}

	ctx := commandContext(cmd)

	path := evalGolden
	if path == "" {
		path = settings.Eval.GoldenSet
	}
	cases, err := loadGoldenSet(ctx, path)
	if err != nil {
		return err
	}

	live := evalLLM || settings.LLM.LiveGeneration
	defense := (evalDefense || settings.Eval.UseDefense) && !evalNoDefense

	evaluator, err := evaluatorFor(ctx, live, defense)
	if err != nil {
		return err
	}

	cmd.Printf("Evaluating %d golden cases...\n", len(cases))
	report, err := evaluator.Run(ctx, cases)
	if err != nil {
		return fmt.Errorf("evaluation failed: %w", err)
	}

	renderGoldenReport(cmd, report)
	return nil
}
