package reembed

import (
	"context"

	"github.com/poiesic/vectorprep/core"
	"github.com/poiesic/vectorprep/storage"
)

const (
	// DefaultBatchSize is the default number of entries handed out per batch
	DefaultBatchSize = 64
)

// EntryIterator walks an index in fixed-size batches.
type EntryIterator struct {
	repo      storage.IndexRepository
	batchSize int
}

// NewEntryIterator creates an iterator over repo.
// A batchSize of zero or less uses DefaultBatchSize.
func NewEntryIterator(repo storage.IndexRepository, batchSize int) *EntryIterator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	return &EntryIterator{
		repo:      repo,
		batchSize: batchSize,
	}
}

// ForEach calls fn with consecutive batches in key order. The last batch may
// be short. Iteration stops at the first error from fn or ctx.
func (it *EntryIterator) ForEach(ctx context.Context, fn func([]*core.IndexEntry) error) error {
	batch := make([]*core.IndexEntry, 0, it.batchSize)

	err := it.repo.ForEachEntry(ctx, func(entry *core.IndexEntry) error {
		batch = append(batch, entry)
		if len(batch) < it.batchSize {
			return nil
		}
		if err := fn(batch); err != nil {
			return err
		}
		batch = make([]*core.IndexEntry, 0, it.batchSize)

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		return nil
	})
	if err != nil {
		return err
	}

	if len(batch) > 0 {
		return fn(batch)
	}
	return nil
}
