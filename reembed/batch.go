package reembed

import (
	"context"
	"fmt"
	"time"

	"github.com/poiesic/vectorprep/ai"
	"github.com/poiesic/vectorprep/core"
	"github.com/poiesic/vectorprep/ingestion"
	"github.com/poiesic/vectorprep/storage"
)

// BatchProcessor embeds one batch of entries and writes it to the target index.
type BatchProcessor struct {
	target         storage.IndexRepository
	embedder       ai.Embedder
	maxRetries     int
	retryBaseDelay time.Duration
}

func NewBatchProcessor(target storage.IndexRepository, embedder ai.Embedder, maxRetries int, retryBaseDelay time.Duration) *BatchProcessor {
	return &BatchProcessor{
		target:         target,
		embedder:       embedder,
		maxRetries:     maxRetries,
		retryBaseDelay: retryBaseDelay,
	}
}

// Process embeds the text of every entry and stores copies carrying the new
// vectors. It returns the dimension of the vectors written.
// The input entries are not modified.
func (bp *BatchProcessor) Process(ctx context.Context, entries []*core.IndexEntry) (int, error) {
	if len(entries) == 0 {
		return 0, nil
	}

	texts := make([]string, len(entries))
	for i, entry := range entries {
		texts[i] = entry.Text
	}

	var embeddings [][]float32
	err := ingestion.Retry(ctx, func() error {
		var err error
		embeddings, err = bp.embedder.EmbedTexts(ctx, texts)
		if err != nil {
			return core.NewEmbeddingError(err)
		}
		return nil
	}, bp.maxRetries, bp.retryBaseDelay)
	if err != nil {
		return 0, fmt.Errorf("failed to generate embeddings after %d attempts: %w", bp.maxRetries, err)
	}

	if len(embeddings) != len(entries) {
		return 0, core.NewEmbeddingError(fmt.Errorf("embedding count mismatch: expected %d, got %d", len(entries), len(embeddings)))
	}

	dimension := len(embeddings[0])
	updated := make([]*core.IndexEntry, len(entries))
	for i, entry := range entries {
		if len(embeddings[i]) != dimension {
			return 0, fmt.Errorf("%w: vector %d has %d values, expected %d", ErrDimensionMismatch, i, len(embeddings[i]), dimension)
		}
		copied := *entry
		copied.Vector = embeddings[i]
		updated[i] = &copied
	}

	if _, err := bp.target.PutEntries(ctx, updated...); err != nil {
		return 0, fmt.Errorf("failed to write entries: %w", err)
	}
	return dimension, nil
}
