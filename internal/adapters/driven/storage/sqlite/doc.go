// Package sqlite provides the SQLite-backed vector index and run history.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. One database file serves:
//
//   - VectorIndex: chunk text, metadata and embeddings, namespaced by collection
//   - RunHistoryStore: outcomes of scheduled and watched index runs
//
// # Schema
//
// The schema is built from forward-only migrations in migrations/. The
// version of the last applied step is kept in PRAGMA user_version.
//
// # Search
//
// Embeddings are stored as little-endian float32 blobs. Queries scan the
// collection and rank by cosine distance, which is adequate for knowledge
// bases of a few thousand chunks.
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode.
package sqlite
