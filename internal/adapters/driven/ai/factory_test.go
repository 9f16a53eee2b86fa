package ai

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragguard/internal/core/domain"
)

func TestCreateEmbeddingService(t *testing.T) {
	tests := []struct {
		name      string
		settings  *domain.EmbeddingSettings
		wantModel string
		wantDims  int
		wantErr   error
	}{
		{
			name:    "nil settings",
			wantErr: domain.ErrConfigInvalid,
		},
		{
			name:      "empty provider defaults to hashing",
			settings:  &domain.EmbeddingSettings{},
			wantModel: "feature-hashing",
			wantDims:  384,
		},
		{
			name:      "hashing honours dimensions",
			settings:  &domain.EmbeddingSettings{Provider: domain.AIProviderHashing, Dimensions: 128},
			wantModel: "feature-hashing",
			wantDims:  128,
		},
		{
			name:      "ollama provider",
			settings:  &domain.EmbeddingSettings{Provider: domain.AIProviderOllama, Model: "all-minilm", Dimensions: 384},
			wantModel: "all-minilm",
			wantDims:  384,
		},
		{
			name:      "openai provider without key",
			settings:  &domain.EmbeddingSettings{Provider: domain.AIProviderOpenAI, BaseURL: "http://localhost:1234/v1"},
			wantModel: "text-embedding-3-small",
			wantDims:  1536,
		},
		{
			name:     "anthropic has no embeddings",
			settings: &domain.EmbeddingSettings{Provider: domain.AIProviderAnthropic, APIKey: "k"},
			wantErr:  domain.ErrUnsupportedType,
		},
		{
			name:     "unknown provider",
			settings: &domain.EmbeddingSettings{Provider: "word2vec"},
			wantErr:  domain.ErrUnsupportedType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := CreateEmbeddingService(tt.settings)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, svc)
				return
			}
			require.NoError(t, err)
			defer svc.Close()
			assert.Equal(t, tt.wantModel, svc.ModelName())
			assert.Equal(t, tt.wantDims, svc.Dimensions())
		})
	}
}

func TestCreateRelevanceScorer(t *testing.T) {
	tests := []struct {
		name      string
		settings  *domain.RerankSettings
		wantModel string
		wantErr   error
	}{
		{
			name:    "nil settings",
			wantErr: domain.ErrConfigInvalid,
		},
		{
			name:      "empty provider defaults to lexical",
			settings:  &domain.RerankSettings{},
			wantModel: "lexical-overlap",
		},
		{
			name:      "http provider",
			settings:  &domain.RerankSettings{Provider: domain.AIProviderHTTP, BaseURL: "http://localhost:8080", Model: "bge-reranker"},
			wantModel: "bge-reranker",
		},
		{
			name:     "http provider without base url",
			settings: &domain.RerankSettings{Provider: domain.AIProviderHTTP},
			wantErr:  domain.ErrConfigInvalid,
		},
		{
			name:     "unknown provider",
			settings: &domain.RerankSettings{Provider: domain.AIProviderOllama},
			wantErr:  domain.ErrUnsupportedType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scorer, err := CreateRelevanceScorer(tt.settings)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, scorer)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantModel, scorer.ModelName())
		})
	}
}

func TestCreateLLMService(t *testing.T) {
	tests := []struct {
		name      string
		settings  *domain.LLMSettings
		wantModel string
		wantErr   error
	}{
		{
			name:    "nil settings",
			wantErr: domain.ErrConfigInvalid,
		},
		{
			name:     "unconfigured settings",
			settings: &domain.LLMSettings{},
			wantErr:  domain.ErrConfigInvalid,
		},
		{
			name:     "anthropic without key",
			settings: &domain.LLMSettings{Provider: domain.AIProviderAnthropic},
			wantErr:  domain.ErrConfigInvalid,
		},
		{
			name:      "ollama provider",
			settings:  &domain.LLMSettings{Provider: domain.AIProviderOllama, Model: "llama3.2"},
			wantModel: "llama3.2",
		},
		{
			name:      "openai compatible without key",
			settings:  &domain.LLMSettings{Provider: domain.AIProviderOpenAI, BaseURL: "http://localhost:1234/v1", Model: "local-model"},
			wantModel: "local-model",
		},
		{
			name:      "anthropic provider",
			settings:  &domain.LLMSettings{Provider: domain.AIProviderAnthropic, APIKey: "test-key", Model: "claude-3-5-sonnet-latest"},
			wantModel: "claude-3-5-sonnet-latest",
		},
		{
			name:      "gemini provider",
			settings:  &domain.LLMSettings{Provider: domain.AIProviderGemini, APIKey: "test-key"},
			wantModel: "gemini-2.0-flash",
		},
		{
			name:     "unknown provider",
			settings: &domain.LLMSettings{Provider: "mistral"},
			wantErr:  domain.ErrUnsupportedType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := CreateLLMService(context.Background(), tt.settings)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, svc)
				return
			}
			require.NoError(t, err)
			defer svc.Close()
			assert.Equal(t, tt.wantModel, svc.ModelName())
		})
	}
}

func newTagsServer(t *testing.T, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"models":[]}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestCreateAndValidateLLMService(t *testing.T) {
	up := newTagsServer(t, http.StatusOK)
	down := newTagsServer(t, http.StatusServiceUnavailable)

	svc, err := CreateAndValidateLLMService(context.Background(),
		&domain.LLMSettings{Provider: domain.AIProviderOllama, BaseURL: up.URL})
	require.NoError(t, err)
	require.NotNil(t, svc)
	_ = svc.Close()

	svc, err = CreateAndValidateLLMService(context.Background(),
		&domain.LLMSettings{Provider: domain.AIProviderOllama, BaseURL: down.URL})
	require.ErrorIs(t, err, domain.ErrLLMUnavailable)
	assert.Contains(t, err.Error(), "[llm]")
	assert.Nil(t, svc)
}

func TestGenerateOptions(t *testing.T) {
	opts := GenerateOptions(&domain.LLMSettings{Temperature: 0.2, MaxTokens: 256})

	assert.Equal(t, 256, opts.MaxTokens)
	assert.InDelta(t, 0.2, opts.Temperature, 1e-9)
}
