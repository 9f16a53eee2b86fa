// Package tei provides a relevance scorer for cross-encoder rerank
// endpoints that speak the Text Embeddings Inference /rerank protocol.
package tei

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/ragguard/internal/adapters/driven/httpclient"
	"github.com/custodia-labs/ragguard/internal/core/domain"
	"github.com/custodia-labs/ragguard/internal/core/ports/driven"
)

// Ensure Scorer implements the interface.
var _ driven.RelevanceScorer = (*Scorer)(nil)

// Default configuration values.
const (
	DefaultModel   = "mixedbread-ai/mxbai-rerank-base-v1"
	DefaultTimeout = 30 * time.Second
)

// Config holds configuration for the rerank endpoint.
type Config struct {
	// BaseURL is the endpoint root; requests go to BaseURL/rerank.
	BaseURL string

	// Model is reported by ModelName. The server decides what it runs.
	Model string

	// Timeout is the request timeout (default: 30s).
	Timeout time.Duration

	// RequestsPerSecond limits calls to the endpoint; 0 means unlimited.
	RequestsPerSecond float64

	// Retry covers the 503s a server returns while it loads the model.
	Retry httpclient.RetryPolicy
}

// Scorer calls a cross-encoder over HTTP. Scores are sigmoid-normalised.
type Scorer struct {
	api     *httpclient.Client
	model   string
	limiter *rate.Limiter
}

type rerankRequest struct {
	Query     string   `json:"query"`
	Texts     []string `json:"texts"`
	RawScores bool     `json:"raw_scores"`
	Truncate  bool     `json:"truncate"`
}

type rerankResult struct {
	Index int     `json:"index"`
	Score float64 `json:"score"`
}

// NewScorer creates a rerank client.
func NewScorer(cfg Config) (*Scorer, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("%w: rerank base URL is required", domain.ErrConfigInvalid)
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	return &Scorer{
		api: httpclient.New(httpclient.Config{
			Name:    "rerank",
			BaseURL: cfg.BaseURL,
			Timeout: cfg.Timeout,
			Retry:   cfg.Retry,
		}),
		model:   cfg.Model,
		limiter: rate.NewLimiter(limit, 1),
	}, nil
}

// Score scores every text against the query in a single request.
func (s *Scorer) Score(ctx context.Context, query string, texts []string) ([]float64, error) {
	if len(texts) == 0 {
		return []float64{}, nil
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	resp, err := s.api.PostJSON(ctx, "/rerank", rerankRequest{Query: query, Texts: texts, Truncate: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrScorerUnavailable, err)
	}
	if !resp.OK() {
		return nil, fmt.Errorf("%w: rerank (status %d): %s", domain.ErrScorerUnavailable, resp.StatusCode, resp.Text())
	}

	var results []rerankResult
	if err := resp.Decode(&results); err != nil {
		return nil, fmt.Errorf("%w: rerank: %w", domain.ErrScorerUnavailable, err)
	}

	// Results come back sorted by score; put them back in input order.
	scores := make([]float64, len(texts))
	seen := make([]bool, len(texts))
	for _, r := range results {
		if r.Index < 0 || r.Index >= len(texts) {
			return nil, fmt.Errorf("%w: rerank index %d out of range", domain.ErrScorerUnavailable, r.Index)
		}
		scores[r.Index] = r.Score
		seen[r.Index] = true
	}
	for i, ok := range seen {
		if !ok {
			return nil, fmt.Errorf("%w: no rerank score for text %d", domain.ErrScorerUnavailable, i)
		}
	}
	return scores, nil
}

// ModelName returns the name of the scoring model.
func (s *Scorer) ModelName() string {
	return s.model
}

// Ping checks the /health endpoint.
func (s *Scorer) Ping(ctx context.Context) error {
	if err := s.api.Check(ctx, "/health"); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrScorerUnavailable, err)
	}
	return nil
}
