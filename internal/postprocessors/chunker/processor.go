// Package chunker provides a sentence-packing text chunker.
//
// Text is split into sentences, then consecutive sentences are packed into
// chunks of at most the configured number of characters (runes). Each chunk
// after the first repeats trailing sentences of its predecessor, up to the
// configured overlap.
package chunker

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/custodia-labs/ragguard/internal/core/ports/driven"
)

// Ensure Processor implements the interface.
var _ driven.Chunker = (*Processor)(nil)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 300

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 50

// Processor splits document text into sentence-aligned chunks.
type Processor struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	// Ensure overlap doesn't exceed chunk size
	if p.overlap >= p.chunkSize {
		p.overlap = p.chunkSize / 4
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// Chunk splits text into chunks. Whitespace-only text produces no chunks.
func (p *Processor) Chunk(text string) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	sentences := p.bound(splitSentences(text))
	lengths := make([]int, len(sentences))
	for i, s := range sentences {
		lengths[i] = utf8.RuneCountInString(s)
	}

	var chunks []string
	start := 0
	for start < len(sentences) {
		end, size := start, 0
		for end < len(sentences) && (end == start || size+lengths[end] <= p.chunkSize) {
			size += lengths[end]
			end++
		}

		if chunk := strings.TrimSpace(strings.Join(sentences[start:end], "")); chunk != "" {
			chunks = append(chunks, chunk)
		}
		if end >= len(sentences) {
			break
		}

		// Step back over trailing sentences that fit in the overlap.
		next, carried := end, 0
		for next-1 > start && carried+lengths[next-1] <= p.overlap {
			carried += lengths[next-1]
			next--
		}
		start = next
	}

	return chunks, nil
}

// bound hard-splits sentences longer than the chunk size.
func (p *Processor) bound(sentences []string) []string {
	out := make([]string, 0, len(sentences))
	for _, s := range sentences {
		if utf8.RuneCountInString(s) <= p.chunkSize {
			out = append(out, s)
			continue
		}
		runes := []rune(s)
		for len(runes) > p.chunkSize {
			out = append(out, string(runes[:p.chunkSize]))
			runes = runes[p.chunkSize:]
		}
		if len(runes) > 0 {
			out = append(out, string(runes))
		}
	}
	return out
}

// splitSentences breaks text after sentence terminators followed by
// whitespace, and after newlines. Concatenating the result yields text.
func splitSentences(text string) []string {
	var sentences []string
	runes := []rune(text)
	begin := 0

	for i := 0; i < len(runes); i++ {
		r := runes[i]
		boundary := false

		switch {
		case r == '\n':
			boundary = true
		case isTerminator(r):
			// Absorb runs like "?!" or "..." before checking what follows.
			for i+1 < len(runes) && isTerminator(runes[i+1]) {
				i++
			}
			boundary = i+1 == len(runes) || unicode.IsSpace(runes[i+1])
		}
		if !boundary {
			continue
		}

		// Keep trailing spaces with the sentence they follow.
		for i+1 < len(runes) && runes[i+1] != '\n' && unicode.IsSpace(runes[i+1]) {
			i++
		}
		sentences = append(sentences, string(runes[begin:i+1]))
		begin = i + 1
	}

	if begin < len(runes) {
		sentences = append(sentences, string(runes[begin:]))
	}
	return sentences
}

func isTerminator(r rune) bool {
	switch r {
	case '.', '!', '?', '…':
		return true
	default:
		return false
	}
}
