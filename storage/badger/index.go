package badger

import (
	"context"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/vectorprep/core"
	"github.com/poiesic/vectorprep/storage"
)

// IndexRepository implements storage.IndexRepository for BadgerDB.
type IndexRepository struct {
	backend *Backend
}

var _ storage.IndexRepository = (*IndexRepository)(nil)

// NewIndexRepository creates a new IndexRepository.
func NewIndexRepository(backend *Backend) *IndexRepository {
	return &IndexRepository{
		backend: backend,
	}
}

// Close is a no-op; the backend is owned by the caller.
func (r *IndexRepository) Close() error {
	return nil
}

// FindSimilar delegates to the backend.
func (r *IndexRepository) FindSimilar(ctx context.Context, vector []float32, minSimilarity float32, limit int) ([]*core.SearchResult, error) {
	return r.backend.FindSimilar(ctx, vector, minSimilarity, limit)
}

// PutEntries writes entries in one transaction, so a failure writes nothing.
// Every entry is validated before anything is written. Batches too large for
// one transaction go through a WriteBatch, which commits in several
// transactions and may leave a partial write if it fails.
func (r *IndexRepository) PutEntries(ctx context.Context, entries ...*core.IndexEntry) ([]*core.IndexEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, entry := range entries {
		if err := core.ValidateIndexEntry(entry, 0); err != nil {
			return nil, err
		}
	}
	if len(entries) == 0 {
		return entries, nil
	}

	// Stored timestamps carry microsecond precision.
	now := time.Now().UTC().Truncate(time.Microsecond)
	for _, entry := range entries {
		if entry.InsertedAt.IsZero() {
			entry.InsertedAt = now
		}
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, entry := range entries {
			if err := tx.Set(makeEntryKey(entry.Id), storage.MarshalIndexEntry(entry)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
	if errors.Is(err, badger.ErrTxnTooBig) {
		err = r.putBatch(entries)
	}
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *IndexRepository) putBatch(entries []*core.IndexEntry) error {
	return r.backend.WithBatch(func(wb *badger.WriteBatch) error {
		for _, entry := range entries {
			if err := wb.Set(makeEntryKey(entry.Id), storage.MarshalIndexEntry(entry)); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetEntry retrieves a single entry by ID.
func (r *IndexRepository) GetEntry(ctx context.Context, id core.ID) (*core.IndexEntry, error) {
	var result *core.IndexEntry
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readEntry(tx, makeEntryKey(id))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// GetEntries retrieves multiple entries by their IDs.
func (r *IndexRepository) GetEntries(ctx context.Context, ids ...core.ID) ([]*core.IndexEntry, error) {
	var result []*core.IndexEntry
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			entry, err := readEntry(tx, makeEntryKey(id))
			if err != nil {
				return err
			}
			if entry != nil {
				result = append(result, entry)
			}
		}
		return nil
	}, false)
	return result, err
}

// CountEntries returns the number of stored entries. Values are not read.
func (r *IndexRepository) CountEntries(ctx context.Context) (int, error) {
	count := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = entryScanPrefix()
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			count++
		}
		return nil
	}, false)
	if err != nil {
		return 0, err
	}
	return count, nil
}

// ForEachEntry calls fn for every entry in key order.
func (r *IndexRepository) ForEachEntry(ctx context.Context, fn func(*core.IndexEntry) error) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = entryScanPrefix()
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var entry *core.IndexEntry
			err := iter.Item().Value(func(val []byte) error {
				var err error
				entry, err = storage.UnmarshalIndexEntry(val)
				return err
			})
			if err != nil {
				return err
			}
			if err := fn(entry); err != nil {
				return err
			}
		}
		return nil
	}, false)
}

// readEntry reads an index entry from the transaction.
// Returns nil, nil when the key is absent.
func readEntry(tx *badger.Txn, key []byte) (*core.IndexEntry, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var entry *core.IndexEntry
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		entry, unmarshalErr = storage.UnmarshalIndexEntry(val)
		return unmarshalErr
	})
	return entry, err
}
