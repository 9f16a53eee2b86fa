// Package domain defines the core entities of the retrieval pipeline.
//
// This package is the innermost layer of the hexagon. It holds the
// types every other layer exchanges:
//
//   - Document, Chunk and ChunkMeta: corpus content and its indexed spans
//   - Manifest and IndexPlan: change detection for incremental indexing
//   - Candidate and Screening: transient retrieval results
//   - QueryEvent, GoldenCase, GoldenEvent and GoldenReport: telemetry and evaluation
//   - AnswerPolicy: the successful-answer and abstention heuristics
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
