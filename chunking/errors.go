package chunking

import "errors"

var (
	// ErrUnknownKind indicates a splitter kind outside recursive and token.
	ErrUnknownKind = errors.New("unknown splitter kind")

	// ErrInvalidSize indicates a non-positive chunk size.
	ErrInvalidSize = errors.New("chunk size must be positive")

	// ErrInvalidOverlap indicates a negative overlap or one not smaller than the chunk size.
	ErrInvalidOverlap = errors.New("chunk overlap must be non-negative and smaller than chunk size")

	// ErrMissingDirectory indicates a policy without a persistence directory.
	ErrMissingDirectory = errors.New("persist directory is required")
)
