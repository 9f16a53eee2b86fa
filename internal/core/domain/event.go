package domain

// QueryEvent is one append-only record per user query.
type QueryEvent struct {
	Timestamp        string   `json:"timestamp"`
	QueryText        string   `json:"query_text"`
	ChunksFound      bool     `json:"chunks_found"`
	AnswerLength     int      `json:"answer_length"`
	SuccessfulAnswer bool     `json:"successful_answer"`
	Sources          []string `json:"sources"`
}

// GoldenEvent is the per-case record of an evaluation run.
type GoldenEvent struct {
	Timestamp        string   `json:"timestamp"`
	RunID            string   `json:"run_id,omitempty"`
	ID               string   `json:"id"`
	Question         string   `json:"question"`
	Topic            string   `json:"topic"`
	ShouldAnswer     bool     `json:"should_answer"`
	ExpectedSources  []string `json:"expected_sources"`
	FoundSources     []string `json:"found_sources"`
	ChunksFound      bool     `json:"chunks_found"`
	AnswerLength     int      `json:"answer_length"`
	SuccessfulAnswer bool     `json:"successful_answer"`
	AnswerText       string   `json:"answer_text"`
	IsCorrect        bool     `json:"is_correct"`
}
