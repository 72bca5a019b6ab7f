package core

import (
	"fmt"
)

// ValidateChunk validates a Chunk according to domain rules.
//
// Validation rules:
//   - Text must not be empty
//   - Source must not be empty
//   - Page must be positive
//   - Index must not be negative
func ValidateChunk(chunk *Chunk) error {
	if chunk == nil {
		return fmt.Errorf("%w: chunk is nil", ErrInvalidChunk)
	}

	if chunk.Text == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyContent)
	}

	if chunk.Source == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrMissingSource)
	}

	if chunk.Page < 1 {
		return fmt.Errorf("%w: page %d out of range", ErrInvalidChunk, chunk.Page)
	}

	if chunk.Index < 0 {
		return fmt.Errorf("%w: index %d out of range", ErrInvalidChunk, chunk.Index)
	}

	return nil
}

// ValidateIndexEntry validates an IndexEntry before it is written.
//
// Validation rules:
//   - Text must not be empty
//   - Vector must not be empty
//   - If dimension > 0, the vector must have exactly that many components
//
// NOT validated:
//   - ID (0 is a legal hash value)
//   - Metadata (may be empty)
func ValidateIndexEntry(entry *IndexEntry, dimension int) error {
	if entry == nil {
		return fmt.Errorf("%w: entry is nil", ErrInvalidEntry)
	}

	if entry.Text == "" {
		return fmt.Errorf("%w: %w", ErrInvalidEntry, ErrEmptyContent)
	}

	if len(entry.Vector) == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidEntry, ErrEmptyVector)
	}

	if dimension > 0 && len(entry.Vector) != dimension {
		return fmt.Errorf("%w: vector has %d dimensions, index expects %d",
			ErrInvalidEntry, len(entry.Vector), dimension)
	}

	return nil
}
