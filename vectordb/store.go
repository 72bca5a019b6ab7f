package vectordb

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"sync"

	"github.com/poiesic/vectorprep/ai"
	"github.com/poiesic/vectorprep/core"
	"github.com/poiesic/vectorprep/storage"
	"github.com/poiesic/vectorprep/storage/badger"
	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/vectorstores"
)

const defaultBatchSize = 64

// Store is a persistent vector index backed by badger.
type Store struct {
	dir       string
	backend   *badger.Backend
	index     storage.IndexRepository
	manifests storage.ManifestRepository
	embedder  ai.Embedder
	logger    *slog.Logger

	batchSize int
	progress  io.Writer

	mu       sync.Mutex
	manifest core.Manifest
	dirty    bool
}

var _ vectorstores.VectorStore = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithBatchSize sets how many texts are embedded per request. Default 64.
func WithBatchSize(size int) Option {
	return func(s *Store) {
		if size > 0 {
			s.batchSize = size
		}
	}
}

// WithProgress reports embedding progress to w.
func WithProgress(w io.Writer) Option {
	return func(s *Store) {
		s.progress = w
	}
}

// WithManifest describes how the entries about to be added were produced.
// Opening an index built with a different embedding model fails.
func WithManifest(m core.Manifest) Option {
	return func(s *Store) {
		s.manifest = m
	}
}

// Open opens or creates the index in dir.
// Every failure is reported as a storage error naming dir.
func Open(ctx context.Context, dir string, embedder ai.Embedder, opts ...Option) (*Store, error) {
	if embedder == nil {
		return nil, core.NewConfigurationError(ErrEmbedderRequired)
	}

	s := &Store{
		dir:       dir,
		embedder:  embedder,
		logger:    slog.Default(),
		batchSize: defaultBatchSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "vectordb", "dir", dir)

	backend, err := badger.OpenBackend(dir, false, badger.WithLogger(s.logger))
	if err != nil {
		return nil, core.NewStorageError(dir, err)
	}
	s.backend = backend
	s.index = badger.NewIndexRepository(backend)
	s.manifests = badger.NewManifestRepository(backend)

	if err := s.reconcileManifest(ctx); err != nil {
		backend.Close()
		return nil, core.NewStorageError(dir, err)
	}
	return s, nil
}

// reconcileManifest merges the stored manifest with the requested one.
func (s *Store) reconcileManifest(ctx context.Context) error {
	existing, err := s.manifests.LoadManifest(ctx)
	if err != nil {
		return err
	}
	if existing == nil {
		s.dirty = true
		return nil
	}

	if s.manifest.EmbeddingModel != "" && existing.EmbeddingModel != "" &&
		s.manifest.EmbeddingModel != existing.EmbeddingModel {
		return fmt.Errorf("%w: index built with model %q, requested %q",
			ErrManifestMismatch, existing.EmbeddingModel, s.manifest.EmbeddingModel)
	}

	requested := s.manifest
	s.manifest = *existing
	if requested.Policy != "" {
		s.manifest.Policy = requested.Policy
		s.manifest.ChunkSize = requested.ChunkSize
		s.manifest.ChunkOverlap = requested.ChunkOverlap
		s.dirty = s.dirty || requested.Policy != existing.Policy ||
			requested.ChunkSize != existing.ChunkSize ||
			requested.ChunkOverlap != existing.ChunkOverlap
	}
	if s.manifest.EmbeddingModel == "" && requested.EmbeddingModel != "" {
		s.manifest.EmbeddingModel = requested.EmbeddingModel
		s.dirty = true
	}
	s.logger.Debug("opened existing index",
		"model", s.manifest.EmbeddingModel, "dimension", s.manifest.Dimension)
	return nil
}

// Dir returns the directory the index lives in.
func (s *Store) Dir() string {
	return s.dir
}

// Manifest returns a copy of the current manifest, including unsaved changes.
func (s *Store) Manifest() core.Manifest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.manifest
}

// AddDocuments embeds every document and writes the resulting entries in one batch.
// Returns the IDs of the written entries in input order.
func (s *Store) AddDocuments(ctx context.Context, docs []schema.Document, options ...vectorstores.Option) ([]string, error) {
	opts := s.getOptions(options...)

	if opts.Deduplicater != nil {
		kept := make([]schema.Document, 0, len(docs))
		for _, doc := range docs {
			if !opts.Deduplicater(ctx, doc) {
				kept = append(kept, doc)
			}
		}
		docs = kept
	}
	if len(docs) == 0 {
		return []string{}, nil
	}

	texts := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = doc.PageContent
	}

	vectors, err := s.embedAll(ctx, texts)
	if err != nil {
		return nil, err
	}

	dimension, err := s.checkDimension(vectors)
	if err != nil {
		return nil, core.NewStorageError(s.dir, err)
	}

	entries := make([]*core.IndexEntry, len(docs))
	ids := make([]string, len(docs))
	for i, doc := range docs {
		id := documentID(doc)
		entries[i] = &core.IndexEntry{
			Id:       id,
			Text:     doc.PageContent,
			Vector:   vectors[i],
			Metadata: flattenMetadata(doc.Metadata),
		}
		ids[i] = strconv.FormatUint(uint64(id), 10)
	}

	if _, err := s.index.PutEntries(ctx, entries...); err != nil {
		return nil, core.NewStorageError(s.dir, err)
	}

	s.mu.Lock()
	if s.manifest.Dimension == 0 {
		s.manifest.Dimension = dimension
		s.dirty = true
	}
	s.mu.Unlock()

	s.logger.Debug("added entries", "count", len(entries))
	return ids, nil
}

// embedAll embeds texts in batches, reporting progress when configured.
func (s *Store) embedAll(ctx context.Context, texts []string) ([][]float32, error) {
	var tracker *ProgressTracker
	if s.progress != nil {
		tracker = NewProgressTracker(s.progress, "Embedding", len(texts), s.batchSize)
		tracker.Start()
		defer tracker.Finish()
	}

	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += s.batchSize {
		end := min(start+s.batchSize, len(texts))
		batch, err := s.embedder.EmbedTexts(ctx, texts[start:end])
		if err != nil {
			return nil, core.NewEmbeddingError(err)
		}
		if len(batch) != end-start {
			return nil, core.NewEmbeddingError(fmt.Errorf(
				"embedder returned %d vectors for %d texts", len(batch), end-start))
		}
		vectors = append(vectors, batch...)
		if tracker != nil {
			tracker.Increment(len(batch))
		}
	}
	return vectors, nil
}

// checkDimension verifies all vectors share the index dimension.
func (s *Store) checkDimension(vectors [][]float32) (int, error) {
	s.mu.Lock()
	expected := s.manifest.Dimension
	s.mu.Unlock()

	for i, v := range vectors {
		if len(v) == 0 {
			return 0, fmt.Errorf("%w: empty vector at position %d", ErrDimensionMismatch, i)
		}
		if expected == 0 {
			expected = len(v)
			continue
		}
		if len(v) != expected {
			return 0, fmt.Errorf("%w: got %d, index holds %d", ErrDimensionMismatch, len(v), expected)
		}
	}
	return expected, nil
}

// SimilaritySearch embeds query and returns up to numDocuments matching documents.
// A non-zero ScoreThreshold drops hits below that cosine similarity. Filters, given
// as map[string]string or map[string]any, must equal the entry metadata.
func (s *Store) SimilaritySearch(ctx context.Context, query string, numDocuments int, options ...vectorstores.Option) ([]schema.Document, error) {
	opts := s.getOptions(options...)
	if opts.ScoreThreshold < 0 || opts.ScoreThreshold > 1 {
		return nil, ErrInvalidScoreThreshold
	}
	filters, err := parseFilters(opts.Filters)
	if err != nil {
		return nil, err
	}
	if numDocuments < 1 {
		return []schema.Document{}, nil
	}

	vector, err := s.embedder.EmbedText(ctx, query)
	if err != nil {
		return nil, core.NewEmbeddingError(err)
	}

	minSimilarity := float32(-1)
	if opts.ScoreThreshold > 0 {
		minSimilarity = opts.ScoreThreshold
	}

	limit := numDocuments
	if len(filters) > 0 {
		total, err := s.index.CountEntries(ctx)
		if err != nil {
			return nil, core.NewStorageError(s.dir, err)
		}
		limit = max(total, 1)
	}

	results, err := s.index.FindSimilar(ctx, vector, minSimilarity, limit)
	if err != nil {
		return nil, core.NewStorageError(s.dir, err)
	}

	docs := make([]schema.Document, 0, min(len(results), numDocuments))
	for _, r := range results {
		if !matchesFilters(r.Entry, filters) {
			continue
		}
		docs = append(docs, toDocument(r))
		if len(docs) == numDocuments {
			break
		}
	}
	return docs, nil
}

// Count returns the number of entries in the index.
func (s *Store) Count(ctx context.Context) (int, error) {
	n, err := s.index.CountEntries(ctx)
	if err != nil {
		return 0, core.NewStorageError(s.dir, err)
	}
	return n, nil
}

// Persist flushes the index to disk and records the manifest.
func (s *Store) Persist(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dirty {
		if err := s.manifests.SaveManifest(ctx, &s.manifest); err != nil {
			return core.NewStorageError(s.dir, err)
		}
		s.dirty = false
	}
	if err := s.backend.Sync(); err != nil {
		return core.NewStorageError(s.dir, err)
	}
	s.logger.Info("persisted index", "model", s.manifest.EmbeddingModel, "dimension", s.manifest.Dimension)
	return nil
}

// Close releases the index. Unpersisted manifest changes are discarded.
func (s *Store) Close() error {
	if err := s.backend.Close(); err != nil {
		return core.NewStorageError(s.dir, err)
	}
	return nil
}

func (s *Store) getOptions(options ...vectorstores.Option) vectorstores.Options {
	opts := vectorstores.Options{}
	for _, opt := range options {
		opt(&opts)
	}
	return opts
}

// parseFilters accepts metadata equality filters.
func parseFilters(filters any) (map[string]string, error) {
	switch f := filters.(type) {
	case nil:
		return nil, nil
	case map[string]string:
		return f, nil
	case map[string]any:
		out := make(map[string]string, len(f))
		for k, v := range f {
			out[k] = fmt.Sprint(v)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: unsupported filter type %T", storage.ErrInvalidQuery, filters)
	}
}
