package reembed

import "errors"

var (
	// ErrEmbedderRequired is returned when no embedder is supplied.
	ErrEmbedderRequired = errors.New("embedder is required")

	// ErrEmbeddingModelRequired is returned when the target model is empty.
	ErrEmbeddingModelRequired = errors.New("embedding model is required")

	// ErrTargetModelMismatch is returned when the target index already holds
	// vectors from a different model.
	ErrTargetModelMismatch = errors.New("target index was built with a different embedding model")

	// ErrDimensionMismatch is returned when vectors of one run disagree in length.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)
