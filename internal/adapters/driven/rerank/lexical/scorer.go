// Package lexical provides a local relevance scorer based on token overlap.
package lexical

import (
	"context"
	"math"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/custodia-labs/ragguard/internal/core/ports/driven"
)

// Ensure Scorer implements the interface.
var _ driven.RelevanceScorer = (*Scorer)(nil)

// MinTokenLength drops short function words from the token sets.
const MinTokenLength = 3

// Scorer scores texts by the squared cosine of their token sets with the
// query. Scores fall in [0, 1] and are deterministic.
type Scorer struct{}

// NewScorer creates a lexical scorer.
func NewScorer() *Scorer {
	return &Scorer{}
}

// Score returns one score per text, in order.
func (s *Scorer) Score(ctx context.Context, query string, texts []string) ([]float64, error) {
	q := tokenSet(query)
	scores := make([]float64, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		scores[i] = overlap(q, tokenSet(text))
	}
	return scores, nil
}

// ModelName returns the name of the scoring model.
func (s *Scorer) ModelName() string {
	return "lexical-overlap"
}

func overlap(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	shared := 0
	for tok := range a {
		if _, ok := b[tok]; ok {
			shared++
		}
	}
	cos := float64(shared) / math.Sqrt(float64(len(a))*float64(len(b)))
	return cos * cos
}

func tokenSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		if utf8.RuneCountInString(tok) >= MinTokenLength {
			set[tok] = struct{}{}
		}
	}
	return set
}
