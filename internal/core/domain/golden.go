package domain

import (
	"fmt"
	"math"
	"strings"
)

// GoldenCase is a labelled evaluation question.
type GoldenCase struct {
	ID              string   `json:"id" yaml:"id"`
	Question        string   `json:"question" yaml:"question"`
	Topic           string   `json:"topic" yaml:"topic"`
	ShouldAnswer    bool     `json:"should_answer" yaml:"should_answer"`
	ExpectedSources []string `json:"expected_sources" yaml:"expected_sources"`
}

// ValidateGoldenSet checks that every case has a unique ID and a question.
func ValidateGoldenSet(cases []GoldenCase) error {
	if len(cases) == 0 {
		return fmt.Errorf("%w: no cases", ErrGoldenSetInvalid)
	}
	seen := make(map[string]bool, len(cases))
	for i, c := range cases {
		if strings.TrimSpace(c.ID) == "" {
			return fmt.Errorf("%w: case %d has no id", ErrGoldenSetInvalid, i)
		}
		if seen[c.ID] {
			return fmt.Errorf("%w: duplicate id %q", ErrGoldenSetInvalid, c.ID)
		}
		seen[c.ID] = true
		if strings.TrimSpace(c.Question) == "" {
			return fmt.Errorf("%w: case %q has no question", ErrGoldenSetInvalid, c.ID)
		}
	}
	return nil
}

// ScoreCase decides whether a case was handled correctly.
//
// Answerable cases need chunks and a successful answer. Unanswerable
// cases are correct when nothing was found or the answer abstains.
func ScoreCase(policy AnswerPolicy, c GoldenCase, chunksFound bool, answer string) bool {
	if c.ShouldAnswer {
		return chunksFound && policy.IsSuccessfulAnswer(answer, chunksFound)
	}
	return !chunksFound || policy.IsAbstention(answer)
}

// GoldenReport is the aggregate outcome of one evaluation run.
type GoldenReport struct {
	RunID                    string  `json:"run_id"`
	StartedAt                string  `json:"started_at"`
	RunLogPath               string  `json:"run_log_path"`
	ReportPath               string  `json:"report_path,omitempty"`
	Total                    int     `json:"total"`
	Correct                  int     `json:"correct"`
	Accuracy                 float64 `json:"accuracy"`
	KnownTotal               int     `json:"known_total"`
	KnownCorrect             int     `json:"known_correct"`
	KnownRecall              float64 `json:"known_recall"`
	MissingTotal             int     `json:"missing_total"`
	MissingCorrectRejections int     `json:"missing_correct_rejections"`
	MissingRejectionRate     float64 `json:"missing_rejection_rate"`
	NoChunksCount            int     `json:"no_chunks_count"`
	RunWithLLM               bool    `json:"run_with_llm"`
	DefenseEnabled           bool    `json:"defense_enabled"`
}

// Tally accumulates case outcomes into the report counters.
func (r *GoldenReport) Tally(c GoldenCase, chunksFound, correct bool) {
	r.Total++
	if correct {
		r.Correct++
	}
	if !chunksFound {
		r.NoChunksCount++
	}
	if c.ShouldAnswer {
		r.KnownTotal++
		if correct {
			r.KnownCorrect++
		}
	} else {
		r.MissingTotal++
		if correct {
			r.MissingCorrectRejections++
		}
	}
}

// Finalise computes the ratios from the counters.
func (r *GoldenReport) Finalise() {
	r.Accuracy = ratio(r.Correct, r.Total)
	r.KnownRecall = ratio(r.KnownCorrect, r.KnownTotal)
	r.MissingRejectionRate = ratio(r.MissingCorrectRejections, r.MissingTotal)
}

// ratio rounds to four decimal places; an empty denominator yields 0.
func ratio(n, d int) float64 {
	if d == 0 {
		return 0
	}
	return math.Round(float64(n)/float64(d)*10000) / 10000
}
