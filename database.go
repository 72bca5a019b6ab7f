// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package vectorprep

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/poiesic/vectorprep/ai"
	"github.com/poiesic/vectorprep/ai/openai"
	"github.com/poiesic/vectorprep/core"
	"github.com/poiesic/vectorprep/search"
	"github.com/poiesic/vectorprep/storage"
	"github.com/poiesic/vectorprep/storage/badger"
)

var (
	// ErrIndexNotFound is returned when the index directory does not exist.
	ErrIndexNotFound = errors.New("index not found")

	// ErrNoManifest is returned when a directory holds no index manifest.
	ErrNoManifest = errors.New("index has no manifest")
)

// Database is the read side of a persisted vector index.
type Database struct {
	dir      string
	backend  *badger.Backend
	index    storage.IndexRepository
	manifest core.Manifest
	embedder ai.Embedder
	logger   *slog.Logger
}

// DatabaseOption configures a Database.
type DatabaseOption func(*databaseOptions)

type databaseOptions struct {
	aiConfig *ai.Config
	model    string
	embedder ai.Embedder
	logger   *slog.Logger
}

// WithAIConfig sets the embedding service used for queries.
// Its model is replaced by the one recorded in the index manifest.
func WithAIConfig(cfg *ai.Config) DatabaseOption {
	return func(o *databaseOptions) {
		o.aiConfig = cfg
	}
}

// WithEmbeddingModel overrides the model recorded in the index manifest.
func WithEmbeddingModel(model string) DatabaseOption {
	return func(o *databaseOptions) {
		o.model = model
	}
}

// WithEmbedder uses embedder for queries instead of building one from the AI config.
func WithEmbedder(embedder ai.Embedder) DatabaseOption {
	return func(o *databaseOptions) {
		o.embedder = embedder
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) DatabaseOption {
	return func(o *databaseOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// OpenDatabase opens the index built in dir. The directory must already hold
// an index written by an ingestion pipeline.
func OpenDatabase(ctx context.Context, dir string, opts ...DatabaseOption) (*Database, error) {
	options := &databaseOptions{
		aiConfig: ai.DefaultConfig(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}

	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, core.NewStorageError(dir, ErrIndexNotFound)
		}
		return nil, core.NewStorageError(dir, err)
	}
	if !info.IsDir() {
		return nil, core.NewStorageError(dir, fmt.Errorf("%w: not a directory", ErrIndexNotFound))
	}

	backend, err := badger.OpenBackend(dir, false, badger.WithLogger(options.logger))
	if err != nil {
		return nil, core.NewStorageError(dir, err)
	}

	manifest, err := badger.NewManifestRepository(backend).LoadManifest(ctx)
	if err == nil && manifest == nil {
		err = ErrNoManifest
	}
	if err != nil {
		backend.Close()
		return nil, core.NewStorageError(dir, err)
	}

	embedder := options.embedder
	if embedder == nil {
		cfg := *options.aiConfig
		cfg.EmbeddingModel = manifest.EmbeddingModel
		if options.model != "" {
			cfg.EmbeddingModel = options.model
		}
		embedder, err = openai.NewEmbedder(&cfg)
		if err != nil {
			backend.Close()
			return nil, core.NewConfigurationError(err)
		}
	}

	return &Database{
		dir:      dir,
		backend:  backend,
		index:    badger.NewIndexRepository(backend),
		manifest: *manifest,
		embedder: embedder,
		logger:   options.logger.With("component", "database", "dir", dir),
	}, nil
}

// Close releases the index.
func (db *Database) Close() error {
	if err := db.backend.Close(); err != nil {
		db.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

// Dir returns the index directory.
func (db *Database) Dir() string {
	return db.dir
}

// Manifest returns how the index was built.
func (db *Database) Manifest() core.Manifest {
	return db.manifest
}

// Count returns the number of entries in the index.
func (db *Database) Count(ctx context.Context) (int, error) {
	n, err := db.index.CountEntries(ctx)
	if err != nil {
		return 0, core.NewStorageError(db.dir, err)
	}
	return n, nil
}

// IndexRepository exposes the underlying entries.
func (db *Database) IndexRepository() storage.IndexRepository {
	return db.index
}

// NewSearcher creates a searcher over this index using the query embedder.
func (db *Database) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	return search.NewSearcher(db.index, db.embedder, append([]search.Option{search.WithLogger(db.logger)}, opts...)...)
}
