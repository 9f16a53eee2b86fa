package domain

// Candidate is a chunk returned by a retrieval query as it moves through
// reranking and screening. Candidates are never persisted.
type Candidate struct {
	Text string
	Meta ChunkMeta

	// Rank is the position in the original retrieval order.
	Rank int

	// Distance is the embedding-space distance; lower is more similar.
	Distance float64

	// Relevance is the reranker score against the user query.
	Relevance float64

	// Affinity is the highest score against any injection probe.
	Affinity float64
}

// Source returns the document ID the candidate was cut from.
func (c Candidate) Source() string {
	return c.Meta.Source
}

// Screening is the outcome of the injection defense stage.
type Screening struct {
	// Safe holds surviving candidates in relevance order.
	Safe []Candidate

	// Blocked holds candidates whose affinity reached the threshold.
	Blocked []Candidate
}

// Sources returns the unique source IDs of cands in first-seen order.
func Sources(cands []Candidate) []string {
	seen := make(map[string]bool, len(cands))
	out := make([]string, 0, len(cands))
	for _, c := range cands {
		src := c.Source()
		if src == "" || seen[src] {
			continue
		}
		seen[src] = true
		out = append(out, src)
	}
	return out
}

// Cap returns at most limit candidates. A limit <= 0 returns all of them.
func Cap(cands []Candidate, limit int) []Candidate {
	if limit <= 0 || len(cands) <= limit {
		return cands
	}
	return cands[:limit]
}
