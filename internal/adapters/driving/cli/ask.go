package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var askNoLLM bool

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer a question from the knowledge base",
	Long: `Retrieves the chunks closest to the question, reranks them, removes
chunks that read like prompt injections and answers from what remains.

Every question is appended to the query log for later analysis. With
--no-llm the answer is a deterministic excerpt instead of generated text.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().BoolVar(&askNoLLM, "no-llm", false, "answer with an excerpt instead of the generation model")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if queryServiceFor == nil {
		return errors.New("query service not configured")
	}

	ctx := commandContext(cmd)

	svc, err := queryServiceFor(ctx, !askNoLLM)
	if err != nil {
		return err
	}

	answer, err := svc.Ask(ctx, strings.Join(args, " "))
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	renderAnswer(cmd, answer)
	return nil
}
