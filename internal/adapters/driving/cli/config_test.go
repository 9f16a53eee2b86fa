package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragguard/internal/adapters/driven/config/file"
	"github.com/custodia-labs/ragguard/internal/core/domain"
	"github.com/custodia-labs/ragguard/internal/core/ports/driven"
)

func TestConfigCmd_Subcommands(t *testing.T) {
	assert.Equal(t, "config", configCmd.Use)
	assert.Equal(t, "show", configShowCmd.Use)
	assert.Equal(t, "init", configInitCmd.Use)
	assert.NotNil(t, configInitCmd.Flags().Lookup("force"))
}

func TestConfigShow_RedactsKeys(t *testing.T) {
	setupTestServices(t)
	settings.LLM.APIKey = "sk-secret"
	settings.Embedding.APIKey = "sk-embed"
	settings.Index.ChunkSize = 512

	out, err := execute(t, "config", "show")
	require.NoError(t, err)

	assert.NotContains(t, out, "sk-secret")
	assert.NotContains(t, out, "sk-embed")
	assert.Contains(t, out, redacted)

	var decoded domain.Settings
	require.NoError(t, toml.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, 512, decoded.Index.ChunkSize)
	assert.Equal(t, domain.DefaultInjectionThreshold, decoded.Defense.Threshold)
}

func TestConfigShow_EmptyKeysStayEmpty(t *testing.T) {
	s := domain.DefaultSettings()
	s.LLM.APIKey = ""

	got := redact(s)

	assert.Empty(t, got.LLM.APIKey)
	assert.Empty(t, got.Embedding.APIKey)
}

func TestConfigInit_WritesDefaults(t *testing.T) {
	setupTestServices(t)
	path := filepath.Join(t.TempDir(), "conf", "ragguard.toml")

	out, err := execute(t, "config", "init", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote default configuration to "+path)

	loaded, err := file.NewConfigStore(path, file.WithLookup(func(string) (string, bool) {
		return "", false
	})).Load()
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultSettings().Index.ChunkSize, loaded.Index.ChunkSize)
	assert.Equal(t, domain.DefaultSettings().Corpus.Dir, loaded.Corpus.Dir)
}

func TestConfigInit_RefusesOverwrite(t *testing.T) {
	setupTestServices(t)
	path := filepath.Join(t.TempDir(), "ragguard.toml")
	require.NoError(t, os.WriteFile(path, []byte("# mine\n"), 0600))

	_, err := execute(t, "config", "init", "--config", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "# mine\n", string(data))

	_, err = execute(t, "config", "init", "--config", path, "--force")
	require.NoError(t, err)

	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "chunk_size")
}

// mockValidator implements driven.AIConfigValidator for testing.
type mockValidator struct {
	embeddingErr error
	rerankErr    error
	llmCalled    bool
}

func (m *mockValidator) ValidateEmbedding(context.Context, *domain.EmbeddingSettings) error { return m.embeddingErr }

func (m *mockValidator) ValidateRerank(context.Context, *domain.RerankSettings) error { return m.rerankErr }

func (m *mockValidator) ValidateLLM(context.Context, *domain.LLMSettings) error {
	m.llmCalled = true
	return nil
}

func useValidator(t *testing.T, v driven.AIConfigValidator) {
	t.Helper()
	old := configValidator
	configValidator = v
	t.Cleanup(func() { configValidator = old })
}

func TestConfigCheck_AllOK(t *testing.T) {
	setupTestServices(t)
	mock := &mockValidator{}
	useValidator(t, mock)

	out, err := execute(t, "config", "check")

	require.NoError(t, err)
	assert.Contains(t, out, "embedding (hashing)")
	assert.Contains(t, out, "rerank (lexical)")
	assert.NotContains(t, out, "llm (")
	assert.False(t, mock.llmCalled)
}

func TestConfigCheck_LiveGenerationChecksLLM(t *testing.T) {
	setupTestServices(t)
	settings.LLM.LiveGeneration = true
	mock := &mockValidator{}
	useValidator(t, mock)

	out, err := execute(t, "config", "check")

	require.NoError(t, err)
	assert.True(t, mock.llmCalled)
	assert.Contains(t, out, "llm (openai)")
}

func TestConfigCheck_Failure(t *testing.T) {
	setupTestServices(t)
	useValidator(t, &mockValidator{rerankErr: domain.ErrScorerUnavailable})

	out, err := execute(t, "config", "check")

	require.ErrorIs(t, err, domain.ErrScorerUnavailable)
	assert.Contains(t, err.Error(), "1 provider checks failed")
	assert.Contains(t, out, "FAIL")
}

func TestConfigCheck_LocalProviders(t *testing.T) {
	setupTestServices(t)

	out, err := execute(t, "config", "check")

	require.NoError(t, err)
	assert.Contains(t, out, "ok")
}
