package reembed

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/poiesic/vectorprep/ai"
	"github.com/poiesic/vectorprep/core"
	"github.com/poiesic/vectorprep/storage"
	"github.com/poiesic/vectorprep/vectordb"
)

type Config struct {
	// BatchSize is the number of entries to embed in each request
	BatchSize int

	// ReportInterval is how often to report progress (number of entries)
	ReportInterval int

	// MaxRetries is the maximum number of attempts for a failed embedding request
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration
}

func DefaultConfig() *Config {
	return &Config{
		BatchSize:      DefaultBatchSize,
		ReportInterval: 100,
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
	}
}

// Source is the index whose entries are re-embedded.
type Source struct {
	Index    storage.IndexRepository
	Manifest core.Manifest
}

// Target receives the re-embedded entries and the updated manifest.
type Target struct {
	Index     storage.IndexRepository
	Manifests storage.ManifestRepository
}

type Reembedder struct {
	source    Source
	target    Target
	model     string
	config    *Config
	progress  io.Writer
	processor *BatchProcessor
	iterator  *EntryIterator
}

// NewReembedder creates a reembedder writing vectors from embedder, which
// must serve model, into target.
func NewReembedder(source Source, target Target, embedder ai.Embedder, model string, config *Config, progress io.Writer) (*Reembedder, error) {
	if embedder == nil {
		return nil, core.NewConfigurationError(ErrEmbedderRequired)
	}
	if model == "" {
		return nil, core.NewConfigurationError(ErrEmbeddingModelRequired)
	}
	if config == nil {
		config = DefaultConfig()
	}
	if progress == nil {
		progress = io.Discard
	}

	return &Reembedder{
		source:    source,
		target:    target,
		model:     model,
		config:    config,
		progress:  progress,
		processor: NewBatchProcessor(target.Index, embedder, config.MaxRetries, config.RetryDelay),
		iterator:  NewEntryIterator(source.Index, config.BatchSize),
	}, nil
}

// Run re-embeds every source entry and saves the target manifest once all
// entries are written. It returns the number of entries processed.
func (r *Reembedder) Run(ctx context.Context) (int, error) {
	existing, err := r.target.Manifests.LoadManifest(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load target manifest: %w", err)
	}
	if existing != nil && existing.EmbeddingModel != "" && existing.EmbeddingModel != r.model {
		return 0, fmt.Errorf("%w: index has %q, requested %q", ErrTargetModelMismatch, existing.EmbeddingModel, r.model)
	}

	totalEntries, err := r.source.Index.CountEntries(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count entries: %w", err)
	}

	dimension := 0
	if existing != nil {
		dimension = existing.Dimension
	}

	if totalEntries == 0 {
		fmt.Fprintf(r.progress, "No entries found in index (0 entries)\n")
	} else {
		fmt.Fprintf(r.progress, "Starting reembedding of %d entries (batch size: %d)\n",
			totalEntries, r.iterator.batchSize)

		tracker := vectordb.NewProgressTracker(r.progress, "Reembedding", totalEntries, r.config.ReportInterval)
		tracker.Start()

		err = r.iterator.ForEach(ctx, func(entries []*core.IndexEntry) error {
			dim, err := r.processor.Process(ctx, entries)
			if err != nil {
				return fmt.Errorf("failed to process batch: %w", err)
			}
			if dimension != 0 && dim != dimension {
				return fmt.Errorf("%w: got %d, expected %d", ErrDimensionMismatch, dim, dimension)
			}
			dimension = dim

			tracker.Increment(len(entries))
			return nil
		})
		if err != nil {
			return tracker.Current(), err
		}

		elapsed := tracker.Elapsed()
		tracker.Finish()

		fmt.Fprintf(r.progress, "Reembedding complete. Processed %d entries in %v (%.1f entries/sec)\n",
			totalEntries, elapsed.Round(time.Second), float64(totalEntries)/elapsed.Seconds())
	}

	manifest := core.Manifest{
		Policy:         r.source.Manifest.Policy,
		ChunkSize:      r.source.Manifest.ChunkSize,
		ChunkOverlap:   r.source.Manifest.ChunkOverlap,
		EmbeddingModel: r.model,
		Dimension:      dimension,
	}
	if existing != nil {
		manifest.CreatedAt = existing.CreatedAt
	}
	if err := r.target.Manifests.SaveManifest(ctx, &manifest); err != nil {
		return totalEntries, fmt.Errorf("failed to save manifest: %w", err)
	}
	return totalEntries, nil
}
