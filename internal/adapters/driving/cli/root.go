// Package cli provides the ragguard command line interface.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragguard/internal/adapters/driven/config/file"
	"github.com/custodia-labs/ragguard/internal/core/domain"
	"github.com/custodia-labs/ragguard/internal/core/ports/driven"
	"github.com/custodia-labs/ragguard/internal/core/ports/driving"
	"github.com/custodia-labs/ragguard/internal/logger"
)

// version is set at build time with -ldflags "-X ...cli.version=v1.2.3".
var version = "dev"

// Command annotations controlling how much of the application is wired.
const (
	// annotationNoConfig skips loading the configuration file.
	annotationNoConfig = "ragguard/no-config"

	// annotationNoServices loads configuration but builds no services.
	annotationNoServices = "ragguard/no-services"
)

// Global flags.
var (
	configPath string
	verbose    bool
)

// Services used by the commands. They are assigned by bootstrap before a
// command runs, or replaced directly in tests.
var (
	settings = domain.DefaultSettings()

	indexer       driving.Indexer
	analyzer      driving.Analyzer
	watchedCorpus driven.Corpus
	gaps          gapSimulator

	// queryServiceFor builds the query pipeline, with or without live generation.
	queryServiceFor func(ctx context.Context, live bool) (driving.QueryService, error)

	// evaluatorFor builds the evaluation harness for the requested pipeline.
	evaluatorFor func(ctx context.Context, live, defense bool) (driving.Evaluator, error)

	// runHistoryFor opens the store that persists scheduled runs.
	runHistoryFor func() (driven.RunHistoryStore, error)

	// loadGoldenSet reads and validates the golden cases at path.
	loadGoldenSet = loadGoldenFile
)

// gapSimulator moves documents out of the corpus and back.
type gapSimulator interface {
	Stash(ctx context.Context, ids []string) ([]string, error)
	Restore(ctx context.Context, ids []string) ([]string, error)
}

// bootstrap wires the services for cmd. Tests replace it with nil.
var bootstrap = bootstrapServices

var rootCmd = &cobra.Command{
	Use:   "ragguard",
	Short: "Incremental RAG indexing, guarded retrieval and evaluation",
	Long: `ragguard keeps a vector index in sync with a directory of documents,
answers questions from it with prompt-injection screening, and measures
answer quality against a golden set.

Configuration is read from ragguard.toml, a .env file and RAGGUARD_*
environment variables.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", file.DefaultConfigFile, "path to the config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// Execute runs the root command and releases any wired resources.
func Execute() error {
	defer closeServices()
	return rootCmd.Execute()
}

// setup applies global flags and runs bootstrap.
func setup(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)
	if bootstrap == nil {
		return nil
	}
	return bootstrap(cmd)
}

// annotated reports whether cmd or any of its parents carries the annotation.
func annotated(cmd *cobra.Command, key string) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if _, ok := c.Annotations[key]; ok {
			return true
		}
	}
	return false
}
