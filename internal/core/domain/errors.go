package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown provider or file type.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrIndexInProgress indicates an indexing run is already active.
	ErrIndexInProgress = errors.New("index run in progress")

	// ErrManifestCorrupt indicates the persisted manifest could not be decoded.
	ErrManifestCorrupt = errors.New("manifest corrupt")

	// Collaborator Errors.

	// ErrIndexUnavailable indicates the vector index could not be opened or queried.
	ErrIndexUnavailable = errors.New("vector index unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service failed or is not configured.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrScorerUnavailable indicates the relevance scorer failed or is not configured.
	ErrScorerUnavailable = errors.New("relevance scorer unavailable")

	// ErrLLMUnavailable indicates the generation model failed or is not configured.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// Startup Errors.

	// ErrConfigInvalid indicates the configuration failed validation.
	ErrConfigInvalid = errors.New("invalid configuration")

	// ErrGoldenSetInvalid indicates the golden set is missing or malformed.
	ErrGoldenSetInvalid = errors.New("invalid golden set")

	// ErrPromptTemplateMissing indicates the configured prompt template does not exist.
	ErrPromptTemplateMissing = errors.New("prompt template missing")
)
