// Package driving holds the use cases the CLI calls: indexing, asking,
// evaluating, analysing and scheduling. Implementations live in
// internal/core/services.
package driving
