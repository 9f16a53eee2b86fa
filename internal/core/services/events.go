package services

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/custodia-labs/ragguard/internal/core/domain"
	"github.com/custodia-labs/ragguard/internal/core/ports/driven"
)

// EventRecorder appends one immutable event per user query.
type EventRecorder struct {
	sink   driven.EventSink
	policy domain.AnswerPolicy
	now    func() time.Time
}

// NewEventRecorder creates a recorder writing to sink.
func NewEventRecorder(sink driven.EventSink, policy domain.AnswerPolicy) *EventRecorder {
	return &EventRecorder{
		sink:   sink,
		policy: policy,
		now:    time.Now,
	}
}

// Record derives the successful-answer flag and appends the event.
func (r *EventRecorder) Record(
	ctx context.Context,
	query string,
	chunksFound bool,
	answer string,
	sources []string,
) (domain.QueryEvent, error) {
	if sources == nil {
		sources = []string{}
	}
	event := domain.QueryEvent{
		Timestamp:        r.now().UTC().Format(time.RFC3339Nano),
		QueryText:        query,
		ChunksFound:      chunksFound,
		AnswerLength:     utf8.RuneCountInString(answer),
		SuccessfulAnswer: r.policy.IsSuccessfulAnswer(answer, chunksFound),
		Sources:          sources,
	}

	if err := r.sink.Append(ctx, event); err != nil {
		return event, fmt.Errorf("append query event: %w", err)
	}
	return event, nil
}
