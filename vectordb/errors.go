package vectordb

import "errors"

var (
	// ErrEmbedderRequired is returned when a store is opened without an embedder.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrManifestMismatch indicates the index was built with a different embedding model.
	ErrManifestMismatch = errors.New("index manifest mismatch")

	// ErrDimensionMismatch indicates vectors of a different size than the index holds.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrInvalidScoreThreshold is returned for thresholds outside [0, 1].
	ErrInvalidScoreThreshold = errors.New("score threshold must be between 0 and 1")
)
