package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragguard/internal/adapters/driven/ai"
	"github.com/custodia-labs/ragguard/internal/adapters/driven/config/file"
	"github.com/custodia-labs/ragguard/internal/core/domain"
	"github.com/custodia-labs/ragguard/internal/core/ports/driven"
)

// redacted replaces secrets in config output.
const redacted = "********"

var configForce bool

// configValidator checks provider connectivity for config check.
var configValidator driven.AIConfigValidator = ai.NewConfigValidator()

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and create the configuration",
	Long: `Settings come from the config file, then a .env file in the working
directory, then the environment. Every key can be set with
RAGGUARD_<SECTION>_<KEY>, for example RAGGUARD_INDEX_CHUNK_SIZE=500.`,
	Annotations: map[string]string{annotationNoServices: "true"},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:         "init",
	Short:       "Write a config file with the default settings",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{annotationNoConfig: "true"},
	RunE:        runConfigInit,
}

var configCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Check that the configured providers are reachable",
	Long: `Pings the embedding provider, scores one query/passage pair with the reranker
and, when live generation is enabled, pings the generation model.`,
	Args: cobra.NoArgs,
	RunE: runConfigCheck,
}

func init() {
	configInitCmd.Flags().BoolVarP(&configForce, "force", "f", false, "overwrite an existing config file")
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configCheckCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	data, err := toml.Marshal(redact(settings))
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	cmd.Print(string(data))
	return nil
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	if !configForce {
		if _, err := os.Stat(configPath); err == nil {
			return fmt.Errorf("%s already exists, use --force to overwrite", configPath)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}

	if err := file.NewConfigStore(configPath).Save(domain.DefaultSettings()); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	cmd.Printf("Wrote default configuration to %s\n", configPath)
	return nil
}

// providerCheck is one connectivity check run by config check.
type providerCheck struct {
	name  string
	check func() error
}

func runConfigCheck(cmd *cobra.Command, _ []string) error {
	if configValidator == nil {
		return errors.New("config validator not configured")
	}

	ctx := commandContext(cmd)
	checks := []providerCheck{
		{"embedding (" + settings.Embedding.Provider.String() + ")", func() error {
			return configValidator.ValidateEmbedding(ctx, &settings.Embedding)
		}},
		{"rerank (" + settings.Rerank.Provider.String() + ")", func() error {
			return configValidator.ValidateRerank(ctx, &settings.Rerank)
		}},
	}
	if settings.LLM.LiveGeneration {
		checks = append(checks, providerCheck{"llm (" + settings.LLM.Provider.String() + ")", func() error {
			return configValidator.ValidateLLM(ctx, &settings.LLM)
		}})
	}

	st := newStyles(cmd)
	var errs []error
	for _, c := range checks {
		if err := c.check(); err != nil {
			st.row(cmd, c.name, st.bad.Render("FAIL "+err.Error()))
			errs = append(errs, err)
			continue
		}
		st.row(cmd, c.name, st.good.Render("ok"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%d provider checks failed: %w", len(errs), errors.Join(errs...))
	}
	return nil
}

// redact hides API keys.
func redact(s domain.Settings) domain.Settings {
	if s.Embedding.APIKey != "" {
		s.Embedding.APIKey = redacted
	}
	if s.LLM.APIKey != "" {
		s.LLM.APIKey = redacted
	}
	return s
}
