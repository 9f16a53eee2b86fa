package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var gapsCmd = &cobra.Command{
	Use:   "gaps",
	Short: "Simulate coverage gaps in the knowledge base",
	Long: `Moves documents out of the corpus so that golden cases about them
should be declined, and moves them back afterwards.

Run "ragguard index" after either subcommand to update the index.`,
}

var gapsCreateCmd = &cobra.Command{
	Use:   "create [document...]",
	Short: "Move documents out of the corpus",
	Long: `Moves the named documents into the gaps directory. Without arguments
the documents listed in corpus.gap_targets are moved.`,
	RunE: runGapsCreate,
}

var gapsRestoreCmd = &cobra.Command{
	Use:   "restore [document...]",
	Short: "Move documents back into the corpus",
	Long:  `Moves the named documents, or every document in the gaps directory, back into the corpus.`,
	RunE:  runGapsRestore,
}

func init() {
	gapsCmd.AddCommand(gapsCreateCmd)
	gapsCmd.AddCommand(gapsRestoreCmd)
	rootCmd.AddCommand(gapsCmd)
}

func runGapsCreate(cmd *cobra.Command, args []string) error {
	if gaps == nil {
		return errors.New("corpus not configured")
	}

	ids := args
	if len(ids) == 0 {
		ids = settings.Corpus.GapTargets
	}
	if len(ids) == 0 {
		return errors.New("no documents named and corpus.gap_targets is empty")
	}

	moved, err := gaps.Stash(commandContext(cmd), ids)
	if err != nil {
		return fmt.Errorf("create gaps failed: %w", err)
	}

	cmd.Printf("Moved %d of %d documents out of the corpus.\n", len(moved), len(ids))
	for _, id := range moved {
		cmd.Printf("  %s\n", id)
	}
	return nil
}

func runGapsRestore(cmd *cobra.Command, args []string) error {
	if gaps == nil {
		return errors.New("corpus not configured")
	}

	moved, err := gaps.Restore(commandContext(cmd), args)
	if err != nil {
		return fmt.Errorf("restore gaps failed: %w", err)
	}

	if len(moved) == 0 {
		cmd.Println("Nothing to restore.")
		return nil
	}
	cmd.Printf("Restored %d documents.\n", len(moved))
	for _, id := range moved {
		cmd.Printf("  %s\n", id)
	}
	return nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
