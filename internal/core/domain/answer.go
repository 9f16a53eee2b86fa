package domain

import (
	"strings"
	"unicode/utf8"
)

// Fixed user-visible messages for queries with no usable context.
const (
	MessageNoDocuments = "No relevant documents found."
	MessageAllFiltered = "All retrieved documents were filtered as potentially malicious."
)

// DefaultMinAnswerLength is the trimmed rune length an answer needs to
// count as successful.
const DefaultMinAnswerLength = 40

// DefaultAbstentionMarkers are the "I don't know" phrases, matched
// case-insensitively as substrings.
var DefaultAbstentionMarkers = []string{
	"не знаю",
	"не найдено",
	"нет данных",
	"недостаточно информации",
	"не могу ответить",
	"i don't know",
	"not found",
	"no data",
	"insufficient information",
	"cannot answer",
}

// AnswerPolicy holds the successful-answer heuristic. Length is a weak
// proxy for substance; this is not a semantic quality judgement.
type AnswerPolicy struct {
	AbstentionMarkers []string
	MinAnswerLength   int
}

// DefaultAnswerPolicy returns the policy with default markers and length.
func DefaultAnswerPolicy() AnswerPolicy {
	return AnswerPolicy{
		AbstentionMarkers: append([]string(nil), DefaultAbstentionMarkers...),
		MinAnswerLength:   DefaultMinAnswerLength,
	}
}

// IsAbstention reports whether answer contains any abstention marker.
func (p AnswerPolicy) IsAbstention(answer string) bool {
	lowered := strings.ToLower(answer)
	for _, marker := range p.AbstentionMarkers {
		if marker == "" {
			continue
		}
		if strings.Contains(lowered, strings.ToLower(marker)) {
			return true
		}
	}
	return false
}

// IsSuccessfulAnswer applies the heuristic: chunks must have been found,
// the answer must not abstain, and its trimmed length must reach the floor.
func (p AnswerPolicy) IsSuccessfulAnswer(answer string, chunksFound bool) bool {
	if !chunksFound {
		return false
	}
	if p.IsAbstention(answer) {
		return false
	}
	return utf8.RuneCountInString(strings.TrimSpace(answer)) >= p.MinAnswerLength
}

// Outcome describes how a query was resolved.
type Outcome string

// Query outcomes.
const (
	OutcomeAnswered    Outcome = "answered"
	OutcomeNoDocuments Outcome = "no_documents"
	OutcomeAllFiltered Outcome = "all_filtered"
)

// Answer is the result of one query through the pipeline.
type Answer struct {
	Question string
	Text     string
	Outcome  Outcome

	// Sources are the unique source IDs of Context in order.
	Sources []string

	// Context is what the generator saw.
	Context []Candidate

	// Blocked counts candidates removed by the defense stage.
	Blocked int

	// Successful is the heuristic verdict recorded in the event log.
	Successful bool
}

// ChunksFound reports whether any safe chunk reached the generator.
func (a Answer) ChunksFound() bool {
	return a.Outcome == OutcomeAnswered
}
