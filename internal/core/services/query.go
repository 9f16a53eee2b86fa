package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/ragguard/internal/core/domain"
	"github.com/custodia-labs/ragguard/internal/core/ports/driving"
	"github.com/custodia-labs/ragguard/internal/logger"
)

// Ensure QueryService implements the interface.
var _ driving.QueryService = (*QueryService)(nil)

// QueryConfig holds the query pipeline limits.
type QueryConfig struct {
	// TopK is how many candidates retrieval returns.
	TopK int

	// ContextLimit caps how many safe candidates reach the generator.
	ContextLimit int
}

// QueryService answers questions through retrieval, reranking and
// injection defense, recording one event per query.
type QueryService struct {
	retriever *Retriever
	defense   *InjectionDefense
	answerer  Answerer
	recorder  *EventRecorder
	cfg       QueryConfig
}

// NewQueryService creates a query pipeline.
func NewQueryService(
	retriever *Retriever,
	defense *InjectionDefense,
	answerer Answerer,
	recorder *EventRecorder,
	cfg QueryConfig,
) *QueryService {
	return &QueryService{
		retriever: retriever,
		defense:   defense,
		answerer:  answerer,
		recorder:  recorder,
		cfg:       cfg,
	}
}

// Ask answers a question. When no candidate survives, the answer carries a
// fixed message and the generator is never called.
func (s *QueryService) Ask(ctx context.Context, question string) (*domain.Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("%w: empty question", domain.ErrInvalidInput)
	}

	// 1. Retrieve
	cands, err := s.retriever.Retrieve(ctx, question, s.cfg.TopK)
	if err != nil {
		return nil, err
	}
	if len(cands) == 0 {
		logger.Info("No candidates retrieved for %q", question)
		return s.finish(ctx, &domain.Answer{
			Question: question,
			Text:     domain.MessageNoDocuments,
			Outcome:  domain.OutcomeNoDocuments,
		}), nil
	}

	// 2. Rerank
	reranked, err := s.retriever.Rerank(ctx, question, cands)
	if err != nil {
		return nil, err
	}

	// 3. Screen
	screening, err := s.defense.Screen(ctx, reranked)
	if err != nil {
		return nil, err
	}
	if len(screening.Safe) == 0 {
		logger.Warn("All %d candidates filtered for %q", len(screening.Blocked), question)
		return s.finish(ctx, &domain.Answer{
			Question: question,
			Text:     domain.MessageAllFiltered,
			Outcome:  domain.OutcomeAllFiltered,
			Blocked:  len(screening.Blocked),
		}), nil
	}

	// 4. Generate from the capped safe context
	chunks := domain.Cap(screening.Safe, s.cfg.ContextLimit)
	text, err := s.answerer.Answer(ctx, question, chunks)
	if err != nil {
		return nil, err
	}

	return s.finish(ctx, &domain.Answer{
		Question: question,
		Text:     text,
		Outcome:  domain.OutcomeAnswered,
		Sources:  domain.Sources(chunks),
		Context:  chunks,
		Blocked:  len(screening.Blocked),
	}), nil
}

// finish records the event. A failing event log never fails the query.
func (s *QueryService) finish(ctx context.Context, answer *domain.Answer) *domain.Answer {
	event, err := s.recorder.Record(ctx, answer.Question, answer.ChunksFound(), answer.Text, answer.Sources)
	if err != nil {
		logger.Error("Failed to record query event: %v", err)
	}
	answer.Successful = event.SuccessfulAnswer
	return answer
}
