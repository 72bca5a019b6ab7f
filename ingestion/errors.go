package ingestion

import "errors"

var (
	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrEmbeddingModelRequired is returned when the config names no embedding model.
	ErrEmbeddingModelRequired = errors.New("embedding model required")

	// ErrSharedDirectory is returned when two pipelines would write the same index.
	ErrSharedDirectory = errors.New("pipelines share a persist directory")

	// ErrInvalidMaxAttempts is returned when maxAttempts is not positive.
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")
)
