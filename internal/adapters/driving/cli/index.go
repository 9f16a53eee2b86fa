package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragguard/internal/core/domain"
	"github.com/custodia-labs/ragguard/internal/core/services"
)

var (
	indexDryRun   bool
	indexWatch    bool
	indexSchedule string
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Bring the vector index in line with the corpus",
	Long: `Fingerprints every document in the corpus directory, compares the
fingerprints with the manifest from the previous run, and applies only the
necessary changes: chunks of deleted and modified documents are removed,
new and modified documents are chunked and written.

With --watch the corpus is re-indexed whenever its files change. With
--schedule it is re-indexed on a cron expression such as "*/15 * * * *".
Both run until interrupted.`,
	Args: cobra.NoArgs,
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().BoolVar(&indexDryRun, "dry-run", false, "show what would change without touching the index")
	indexCmd.Flags().BoolVarP(&indexWatch, "watch", "w", false, "re-index whenever the corpus changes")
	indexCmd.Flags().StringVar(&indexSchedule, "schedule", "", "re-index on a cron expression")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, _ []string) error {
	if indexer == nil {
		return errors.New("index service not configured")
	}

	ctx := commandContext(cmd)

	if indexDryRun {
		if indexWatch || indexSchedule != "" {
			return errors.New("--dry-run cannot be combined with --watch or --schedule")
		}
		plan, err := indexer.Plan(ctx)
		if err != nil {
			return fmt.Errorf("plan failed: %w", err)
		}
		renderPlan(cmd, plan)
		return nil
	}

	if indexWatch || indexSchedule != "" {
		return runIndexScheduler(ctx, cmd)
	}

	report, err := indexer.Run(ctx)
	if err != nil {
		return fmt.Errorf("index failed: %w", err)
	}
	renderIndexReport(cmd, report)
	return nil
}

// runIndexScheduler indexes once, then keeps indexing on changes or on the
// schedule until the process is interrupted.
func runIndexScheduler(ctx context.Context, cmd *cobra.Command) error {
	opts := []services.SchedulerOption{
		services.WithHistory(settings.Schedule.History),
	}
	if indexSchedule != "" {
		opts = append(opts, services.WithCron(indexSchedule))
	}
	if indexWatch {
		if watchedCorpus == nil {
			return errors.New("corpus not configured")
		}
		debounce := time.Duration(settings.Schedule.DebounceMillis) * time.Millisecond
		opts = append(opts, services.WithWatch(watchedCorpus, debounce))
	}
	if runHistoryFor != nil {
		store, err := runHistoryFor()
		if err != nil {
			return err
		}
		opts = append(opts, services.WithRunStore(store))
	}

	scheduler, err := services.NewIndexScheduler(indexer, opts...)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	renderRun(cmd, scheduler.Trigger(ctx, domain.TriggerManual))
	cmd.Println("Waiting for changes, press Ctrl+C to stop.")

	err = scheduler.Start(ctx)

	history := scheduler.History()
	if len(history) > 0 {
		cmd.Println()
		newStyles(cmd).heading(cmd, "Recent runs")
		for _, run := range history {
			renderRun(cmd, run)
		}
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
