package domain

import "sort"

// Count is a key with its number of occurrences.
type Count struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// TopCounts orders counts by count descending then key ascending and
// keeps at most n entries.
func TopCounts(counts map[string]int, n int) []Count {
	out := make([]Count, 0, len(counts))
	for k, v := range counts {
		out = append(out, Count{Key: k, Count: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Key < out[j].Key
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// GoldenAnalysis summarises the failures of one evaluation run log.
type GoldenAnalysis struct {
	LogPath              string         `json:"log_path,omitempty"`
	Error                string         `json:"error,omitempty"`
	Total                int            `json:"total"`
	Failures             int            `json:"failures"`
	FailureByTopic       map[string]int `json:"failure_by_topic"`
	TopIrrelevantSources []Count        `json:"top_irrelevant_sources"`
}

// QueryAnalysis summarises the live query log.
type QueryAnalysis struct {
	LogPath             string  `json:"log_path,omitempty"`
	TotalQueries        int     `json:"total_queries"`
	NoChunksQueries     int     `json:"no_chunks_queries"`
	UnsuccessfulAnswers int     `json:"unsuccessful_answers"`
	TopSources          []Count `json:"top_sources"`
}

// AnalyticsSummary is the combined offline analytics report.
type AnalyticsSummary struct {
	Golden      GoldenAnalysis `json:"golden"`
	Queries     QueryAnalysis  `json:"bot_queries"`
	SummaryPath string         `json:"summary_path,omitempty"`
}
