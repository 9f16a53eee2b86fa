// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Indexing
//
//   - Corpus: Enumerates and reads eligible documents
//   - Chunker: Splits document text into bounded spans
//   - ManifestStore: Persists the document fingerprint manifest
//   - VectorIndex: Stores chunks and answers similarity queries
//   - EmbeddingService: Turns text into vectors for the index
//
// # Query and Evaluation
//
//   - RelevanceScorer: Scores (query, text) pairs for reranking and probe affinity
//   - LLMService: Generates answers from an assembled prompt
//   - PromptStore: Provides the answer prompt template
//   - EventSink: Append-only event log stream
//   - RunArchive: Run logs and reports for evaluation and analytics
//   - GoldenSetLoader: Loads labelled evaluation cases
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
