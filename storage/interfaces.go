package storage

import (
	"context"

	"github.com/poiesic/vectorprep/core"
)

// Repository is the read surface shared by index stores.
type Repository interface {
	// FindSimilar finds entries similar to the given vector.
	// Returns entries with similarity >= minSimilarity, up to limit results.
	// Results are ordered by similarity score (highest first).
	FindSimilar(ctx context.Context, vector []float32, minSimilarity float32, limit int) ([]*core.SearchResult, error)

	// Close releases resources held by the repository.
	Close() error
}

// IndexRepository stores (vector, text, metadata) entries.
type IndexRepository interface {
	Repository

	// PutEntries writes entries in a single batch, keyed by entry ID.
	// Sets InsertedAt if not already set. An existing entry with the same ID
	// is replaced.
	PutEntries(ctx context.Context, entries ...*core.IndexEntry) ([]*core.IndexEntry, error)

	// GetEntry retrieves a single entry by ID.
	// Returns ErrNotFound if the entry doesn't exist.
	GetEntry(ctx context.Context, id core.ID) (*core.IndexEntry, error)

	// GetEntries retrieves multiple entries by their IDs.
	// Returns only the entries that exist (no error for missing entries).
	GetEntries(ctx context.Context, ids ...core.ID) ([]*core.IndexEntry, error)

	// CountEntries returns the number of stored entries.
	CountEntries(ctx context.Context) (int, error)

	// ForEachEntry calls fn for every entry in key order, stopping at the first error.
	ForEachEntry(ctx context.Context, fn func(*core.IndexEntry) error) error
}

// ManifestRepository stores the single manifest of an index.
type ManifestRepository interface {
	// SaveManifest persists the manifest, updating its UpdatedAt timestamp.
	SaveManifest(ctx context.Context, manifest *core.Manifest) error

	// LoadManifest retrieves the manifest.
	// Returns nil, nil if no manifest exists.
	LoadManifest(ctx context.Context) (*core.Manifest, error)
}
