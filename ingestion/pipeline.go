package ingestion

import (
	"context"
	"io"
	"log/slog"

	"github.com/poiesic/vectorprep/ai"
	"github.com/poiesic/vectorprep/chunking"
	"github.com/poiesic/vectorprep/core"
	"github.com/poiesic/vectorprep/loader"
	"github.com/poiesic/vectorprep/vectordb"
)

// Pipeline loads documents, splits them and writes the resulting index.
type Pipeline struct {
	cfg       Config
	embedder  ai.Embedder
	source    loader.DocumentSource
	splitter  *chunking.Splitter
	encoding  string
	batchSize int
	progress  io.Writer
	logger    *slog.Logger

	// baseLogger is handed to collaborators, which add their own component key.
	baseLogger *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// WithSource replaces the PDF document source.
func WithSource(source loader.DocumentSource) Option {
	return func(p *Pipeline) error {
		if source != nil {
			p.source = source
		}
		return nil
	}
}

// WithBatchSize sets how many chunks are embedded per request.
func WithBatchSize(size int) Option {
	return func(p *Pipeline) error {
		p.batchSize = size
		return nil
	}
}

// WithProgress reports embedding progress to w.
func WithProgress(w io.Writer) Option {
	return func(p *Pipeline) error {
		p.progress = w
		return nil
	}
}

// WithEncoding sets the tiktoken encoding used by the token policy.
func WithEncoding(name string) Option {
	return func(p *Pipeline) error {
		if name != "" {
			p.encoding = name
		}
		return nil
	}
}

// NewPipeline validates cfg and creates a pipeline. Nothing is read or written
// until LoadDocuments or BuildAndPersist is called.
func NewPipeline(cfg Config, embedder ai.Embedder, opts ...Option) (*Pipeline, error) {
	if embedder == nil {
		return nil, core.NewConfigurationError(ErrEmbedderRequired)
	}
	if err := cfg.Validate(); err != nil {
		return nil, core.NewConfigurationError(err)
	}

	p := &Pipeline{
		cfg:      cfg,
		embedder: embedder,
		encoding: chunking.DefaultEncoding,
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, core.NewConfigurationError(err)
		}
	}
	base := p.logger
	p.baseLogger = base
	p.logger = base.With("component", "ingestion", "policy", cfg.Policy.Kind().String())
	if p.source == nil {
		p.source = loader.NewPDFSource(loader.WithLogger(base))
	}

	splitter, err := chunking.NewSplitter(cfg.Policy,
		chunking.WithLogger(base),
		chunking.WithEncoding(p.encoding),
	)
	if err != nil {
		return nil, core.NewConfigurationError(err)
	}
	p.splitter = splitter

	return p, nil
}

// Config returns the pipeline configuration.
func (p *Pipeline) Config() Config {
	return p.cfg
}

// Directory returns the index directory this pipeline writes to.
func (p *Pipeline) Directory() string {
	return p.cfg.Policy.Directory()
}

// LoadDocuments reads every document of the configured location, one
// SourceDocument per page.
func (p *Pipeline) LoadDocuments(ctx context.Context) ([]core.SourceDocument, error) {
	return loader.Load(ctx, p.cfg.Location, p.source, p.logger)
}

// Chunk splits pages with the configured policy. The input is not modified.
func (p *Pipeline) Chunk(docs []core.SourceDocument) ([]core.Chunk, error) {
	return p.splitter.Split(docs)
}

// BuildAndPersist loads, chunks, embeds and stores the documents, then flushes
// the index. The caller owns the returned store and must close it.
func (p *Pipeline) BuildAndPersist(ctx context.Context) (*vectordb.Store, error) {
	docs, err := p.LoadDocuments(ctx)
	if err != nil {
		return nil, err
	}

	chunks, err := p.Chunk(docs)
	if err != nil {
		return nil, err
	}

	params := p.cfg.Policy.Params()
	storeOpts := []vectordb.Option{
		vectordb.WithLogger(p.baseLogger),
		vectordb.WithManifest(core.Manifest{
			Policy:         p.cfg.Policy.Kind().String(),
			ChunkSize:      params.ChunkSize,
			ChunkOverlap:   params.ChunkOverlap,
			EmbeddingModel: p.cfg.EmbeddingModel,
		}),
	}
	if p.batchSize > 0 {
		storeOpts = append(storeOpts, vectordb.WithBatchSize(p.batchSize))
	}
	if p.progress != nil {
		storeOpts = append(storeOpts, vectordb.WithProgress(p.progress))
	}

	store, err := vectordb.Open(ctx, p.Directory(), p.embedder, storeOpts...)
	if err != nil {
		return nil, err
	}

	if _, err := store.AddDocuments(ctx, vectordb.FromChunks(chunks)); err != nil {
		p.closeAfterFailure(store)
		return nil, err
	}
	if err := store.Persist(ctx); err != nil {
		p.closeAfterFailure(store)
		return nil, err
	}

	p.logger.Info("built index", "dir", p.Directory(), "pages", len(docs), "chunks", len(chunks))
	return store, nil
}

func (p *Pipeline) closeAfterFailure(store *vectordb.Store) {
	if err := store.Close(); err != nil {
		p.logger.Error("error closing index after failure", "dir", p.Directory(), "err", err)
	}
}
