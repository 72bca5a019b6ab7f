package openai

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/poiesic/vectorprep/ai"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
)

// Embedder implements ai.Embedder using OpenAI-compatible embedding APIs.
type Embedder struct {
	embedder embeddings.Embedder
	model    string
	logger   *slog.Logger
}

// Option customizes the underlying client.
type Option func(*[]openai.Option)

// WithHTTPClient replaces the HTTP client used for embedding requests.
func WithHTTPClient(client *http.Client) Option {
	return func(opts *[]openai.Option) {
		*opts = append(*opts, openai.WithHTTPClient(client))
	}
}

// clientOptions translates the config into langchaingo client options.
// Every value is set explicitly so the client never falls back to environment variables.
func clientOptions(config *ai.Config) []openai.Option {
	opts := []openai.Option{
		openai.WithBaseURL(config.EmbeddingHost),
		openai.WithToken(config.APIKey),
		openai.WithEmbeddingModel(config.EmbeddingModel),
		// langchaingo requires a chat model name for Azure even when only embedding
		openai.WithModel(config.EmbeddingModel),
	}

	switch config.APIType {
	case ai.APITypeAzure:
		opts = append(opts, openai.WithAPIType(openai.APITypeAzure), openai.WithAPIVersion(config.APIVersion))
	case ai.APITypeAzureAD:
		opts = append(opts, openai.WithAPIType(openai.APITypeAzureAD), openai.WithAPIVersion(config.APIVersion))
	default:
		opts = append(opts, openai.WithAPIType(openai.APITypeOpenAI))
	}

	if config.Dimensions > 0 {
		opts = append(opts, openai.WithEmbeddingDimensions(config.Dimensions))
	}
	return opts
}

// newEmbedder is an internal constructor that returns the concrete type.
func newEmbedder(config *ai.Config, options ...Option) (*Embedder, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	opts := clientOptions(config)
	for _, o := range options {
		o(&opts)
	}

	client, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("creating embedding client: %w", err)
	}

	// Wrap in langchaingo embedder
	embedder, err := embeddings.NewEmbedder(client,
		embeddings.WithStripNewLines(true),
		embeddings.WithBatchSize(config.BatchSize),
	)
	if err != nil {
		return nil, err
	}

	return &Embedder{
		embedder: embedder,
		model:    config.EmbeddingModel,
		logger:   slog.Default().With("component", "openai-embedder"),
	}, nil
}

// NewEmbedder creates a new embedder using the provided configuration.
//
// Returns ai.Embedder interface to enforce abstraction.
func NewEmbedder(config *ai.Config, options ...Option) (ai.Embedder, error) {
	return newEmbedder(config, options...)
}

// EmbedText generates a vector embedding for a single text string.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	e.logger.Debug("generating embedding for single text", "length", len(text))

	vectors, err := e.embedder.EmbedDocuments(ctx, []string{text})
	if err != nil {
		e.logger.Error("failed to generate embedding", "model", e.model, "err", err)
		return nil, err
	}

	if len(vectors) == 0 {
		return nil, fmt.Errorf("embedding service returned no vectors for model %s", e.model)
	}

	return vectors[0], nil
}

// EmbedTexts generates vector embeddings for multiple text strings in a batch.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	e.logger.Debug("generating embeddings for texts", "count", len(texts))

	// langchaingo strips newlines in place
	batch := make([]string, len(texts))
	copy(batch, texts)

	vectors, err := e.embedder.EmbedDocuments(ctx, batch)
	if err != nil {
		e.logger.Error("failed to generate embeddings", "count", len(texts), "model", e.model, "err", err)
		return nil, err
	}

	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("embedding service returned %d vectors for %d texts", len(vectors), len(texts))
	}

	return vectors, nil
}
