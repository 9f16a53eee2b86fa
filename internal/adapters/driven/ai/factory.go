// Package ai provides factory functions for creating AI service adapters.
package ai

import (
	"context"
	"fmt"
	"time"

	hashingembed "github.com/custodia-labs/ragguard/internal/adapters/driven/embedding/hashing"
	ollamaembed "github.com/custodia-labs/ragguard/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/ragguard/internal/adapters/driven/embedding/openai"
	anthropicllm "github.com/custodia-labs/ragguard/internal/adapters/driven/llm/anthropic"
	geminillm "github.com/custodia-labs/ragguard/internal/adapters/driven/llm/gemini"
	ollamallm "github.com/custodia-labs/ragguard/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/ragguard/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/ragguard/internal/adapters/driven/rerank/lexical"
	"github.com/custodia-labs/ragguard/internal/adapters/driven/rerank/tei"
	"github.com/custodia-labs/ragguard/internal/core/domain"
	"github.com/custodia-labs/ragguard/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// CreateAndValidateLLMService creates an LLM service and validates connectivity.
// Returns the service if successful, or an error with guidance.
func CreateAndValidateLLMService(ctx context.Context, settings *domain.LLMSettings) (driven.LLMService, error) {
	svc, err := CreateLLMService(ctx, settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. Check the [llm] section of the config file",
			domain.ErrLLMUnavailable, err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := svc.Ping(pingCtx); err != nil {
		_ = svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w). Check the [llm] section of the config file",
			domain.ErrLLMUnavailable, err)
	}

	return svc, nil
}

// CreateEmbeddingService creates the embedding service named by settings.
func CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil {
		return nil, fmt.Errorf("%w: embedding settings missing", domain.ErrConfigInvalid)
	}

	switch settings.Provider {
	case domain.AIProviderHashing, "":
		return hashingembed.NewEmbeddingService(settings.Dimensions), nil

	case domain.AIProviderOllama:
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Dimensions: settings.Dimensions,
		}), nil

	case domain.AIProviderOpenAI:
		return openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:     settings.APIKey,
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Dimensions: settings.Dimensions,
		}), nil

	case domain.AIProviderAnthropic, domain.AIProviderGemini:
		return nil, fmt.Errorf("%w: %s embeddings are not supported, use hashing, ollama or openai",
			domain.ErrUnsupportedType, settings.Provider)

	default:
		return nil, fmt.Errorf("%w: embedding provider %q", domain.ErrUnsupportedType, settings.Provider)
	}
}

// CreateRelevanceScorer creates the scorer used for reranking and injection probes.
func CreateRelevanceScorer(settings *domain.RerankSettings) (driven.RelevanceScorer, error) {
	if settings == nil {
		return nil, fmt.Errorf("%w: rerank settings missing", domain.ErrConfigInvalid)
	}

	switch settings.Provider {
	case domain.AIProviderLexical, "":
		return lexical.NewScorer(), nil

	case domain.AIProviderHTTP:
		scorer, err := tei.NewScorer(tei.Config{
			BaseURL:           settings.BaseURL,
			Model:             settings.Model,
			RequestsPerSecond: settings.RequestsPerSecond,
		})
		if err != nil {
			return nil, err
		}
		return scorer, nil

	default:
		return nil, fmt.Errorf("%w: rerank provider %q", domain.ErrUnsupportedType, settings.Provider)
	}
}

// CreateLLMService creates the LLM service named by settings.
func CreateLLMService(ctx context.Context, settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, fmt.Errorf("%w: llm provider not configured", domain.ErrConfigInvalid)
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamallm.NewLLMService(ollamallm.LLMConfig{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		}), nil

	case domain.AIProviderOpenAI:
		return openaillm.NewLLMService(openaillm.LLMConfig{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		}), nil

	case domain.AIProviderAnthropic:
		svc, err := anthropicllm.NewLLMService(anthropicllm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})
		if err != nil {
			return nil, err
		}
		return svc, nil

	case domain.AIProviderGemini:
		svc, err := geminillm.NewLLMService(ctx, geminillm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})
		if err != nil {
			return nil, err
		}
		return svc, nil

	default:
		return nil, fmt.Errorf("%w: llm provider %q", domain.ErrUnsupportedType, settings.Provider)
	}
}

// GenerateOptions maps LLM settings onto per-call generation options.
func GenerateOptions(settings *domain.LLMSettings) driven.GenerateOptions {
	return driven.GenerateOptions{
		MaxTokens:   settings.MaxTokens,
		Temperature: settings.Temperature,
	}
}
