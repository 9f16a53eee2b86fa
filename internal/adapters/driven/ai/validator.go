package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/ragguard/internal/core/domain"
	"github.com/custodia-labs/ragguard/internal/core/ports/driven"
)

// Ensure ConfigValidator implements the interface.
var _ driven.AIConfigValidator = (*ConfigValidator)(nil)

// ValidatorOption configures a ConfigValidator.
type ValidatorOption func(*ConfigValidator)

// WithCheckTimeout bounds each provider check (default: 5s).
func WithCheckTimeout(d time.Duration) ValidatorOption {
	return func(v *ConfigValidator) {
		if d > 0 {
			v.timeout = d
		}
	}
}

// ConfigValidator builds each configured provider and makes one cheap call
// against it. Build errors are returned as is; a provider that was built but
// did not answer is reported with its unavailable error.
type ConfigValidator struct {
	timeout time.Duration
}

// NewConfigValidator creates a validator.
func NewConfigValidator(opts ...ValidatorOption) *ConfigValidator {
	v := &ConfigValidator{timeout: pingTimeout}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// ValidateEmbedding builds the embedder and pings it.
func (v *ConfigValidator) ValidateEmbedding(ctx context.Context, config *domain.EmbeddingSettings) error {
	svc, err := CreateEmbeddingService(config)
	if err != nil {
		return err
	}
	defer svc.Close()
	return v.check(ctx, domain.ErrEmbeddingUnavailable, svc.Ping)
}

// ValidateRerank builds the scorer and scores one query/passage pair.
func (v *ConfigValidator) ValidateRerank(ctx context.Context, config *domain.RerankSettings) error {
	scorer, err := CreateRelevanceScorer(config)
	if err != nil {
		return err
	}
	return v.check(ctx, domain.ErrScorerUnavailable, func(ctx context.Context) error {
		scores, err := scorer.Score(ctx, "ping", []string{"pong"})
		if err != nil {
			return err
		}
		if len(scores) != 1 {
			return fmt.Errorf("expected 1 score, got %d", len(scores))
		}
		return nil
	})
}

// ValidateLLM builds the generation model and pings it.
func (v *ConfigValidator) ValidateLLM(ctx context.Context, config *domain.LLMSettings) error {
	svc, err := CreateLLMService(ctx, config)
	if err != nil {
		return err
	}
	defer svc.Close()
	return v.check(ctx, domain.ErrLLMUnavailable, svc.Ping)
}

func (v *ConfigValidator) check(ctx context.Context, unavailable error, call func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	err := call(ctx)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, unavailable):
		return err
	default:
		return fmt.Errorf("%w: %w", unavailable, err)
	}
}
