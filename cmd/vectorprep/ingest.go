package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/poiesic/vectorprep/ai"
	"github.com/poiesic/vectorprep/ai/openai"
	"github.com/poiesic/vectorprep/chunking"
	"github.com/poiesic/vectorprep/config"
	"github.com/poiesic/vectorprep/ingestion"
	"github.com/urfave/cli/v2"
)

func ingestCommand(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt)
	defer stop()

	maxRetries := c.Int("max-retries")
	if maxRetries <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	if err := applyIngestFlags(c, cfg); err != nil {
		return err
	}

	var configs []ingestion.Config
	if c.Bool("all-policies") {
		configs, err = cfg.PipelineConfigs()
	} else {
		var single ingestion.Config
		single, err = cfg.PipelineConfig()
		configs = []ingestion.Config{single}
	}
	if err != nil {
		return err
	}

	aiConfig := embeddingConfig(c, cfg)
	embedder, err := openai.NewEmbedder(aiConfig)
	if err != nil {
		return fmt.Errorf("failed to create embedder: %w", err)
	}

	pipelines := make([]*ingestion.Pipeline, 0, len(configs))
	for _, pc := range configs {
		opts := []ingestion.Option{ingestion.WithBatchSize(aiConfig.BatchSize)}
		if len(configs) == 1 {
			opts = append(opts, ingestion.WithProgress(c.App.ErrWriter))
		}
		p, err := ingestion.NewPipeline(pc, embedder, opts...)
		if err != nil {
			return err
		}
		pipelines = append(pipelines, p)
	}

	fmt.Fprintf(c.App.ErrWriter, "Documents: %s\n", cfg.Location())
	fmt.Fprintf(c.App.ErrWriter, "Embedding host: %s\n", aiConfig.EmbeddingHost)
	fmt.Fprintf(c.App.ErrWriter, "Embedding model: %s\n", aiConfig.EmbeddingModel)
	for _, p := range pipelines {
		fmt.Fprintf(c.App.ErrWriter, "Index: %s\n", p.Config().Policy)
	}
	fmt.Fprintln(c.App.ErrWriter)

	delay := c.Duration("retry-delay")
	if len(pipelines) == 1 {
		p := pipelines[0]
		var count int
		err := ingestion.Retry(ctx, func() error {
			n, err := buildIndex(ctx, p)
			count = n
			return err
		}, maxRetries, delay)
		if err != nil {
			return fmt.Errorf("ingestion failed: %w", err)
		}
		fmt.Fprintf(c.App.Writer, "Indexed %d chunks into %s\n", count, p.Directory())
		return nil
	}

	var results []ingestion.Result
	err = ingestion.Retry(ctx, func() error {
		var err error
		results, err = ingestion.RunAll(ctx, pipelines)
		return err
	}, maxRetries, delay)
	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(c.App.Writer, "Failed %s: %v\n", r.Directory, r.Err)
			continue
		}
		fmt.Fprintf(c.App.Writer, "Indexed %d chunks into %s\n", r.Count, r.Directory)
	}
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}
	return nil
}

func buildIndex(ctx context.Context, p *ingestion.Pipeline) (int, error) {
	store, err := p.BuildAndPersist(ctx)
	if err != nil {
		return 0, err
	}
	defer store.Close()
	return store.Count(ctx)
}

// applyIngestFlags layers command-line overrides on top of the configuration file.
func applyIngestFlags(c *cli.Context, cfg *config.File) error {
	if c.IsSet("data-dir") {
		cfg.DataDirectory = c.String("data-dir")
		cfg.DataFiles = nil
	}
	if c.IsSet("files") {
		cfg.DataFiles = c.StringSlice("files")
	}
	if c.IsSet("splitter") {
		cfg.SplitterType = c.String("splitter")
	}
	if c.IsSet("batch-size") {
		cfg.Embedding.BatchSize = c.Int("batch-size")
	}
	applyEmbeddingFlags(c, cfg)

	if !c.IsSet("chunk-size") && !c.IsSet("chunk-overlap") && !c.IsSet("persist-dir") {
		return nil
	}
	if c.Bool("all-policies") {
		return errors.New("chunk-size, chunk-overlap and persist-dir cannot be combined with all-policies")
	}
	kind, err := chunking.ParseKind(cfg.SplitterType)
	if err != nil {
		return err
	}

	size, overlap, dir := &cfg.ChunkSize, &cfg.ChunkOverlap, &cfg.PersistDirectoryRecursive
	if kind == chunking.KindToken {
		size, overlap, dir = &cfg.TokenChunkSize, &cfg.TokenChunkOverlap, &cfg.PersistDirectoryToken
	}
	if c.IsSet("chunk-size") {
		*size = c.Int("chunk-size")
	}
	if c.IsSet("chunk-overlap") {
		*overlap = c.Int("chunk-overlap")
	}
	if c.IsSet("persist-dir") {
		*dir = c.String("persist-dir")
	}
	return nil
}

func applyEmbeddingFlags(c *cli.Context, cfg *config.File) {
	if c.IsSet("embedding-host") {
		cfg.Embedding.Host = c.String("embedding-host")
	}
	if c.IsSet("embedding-model") {
		cfg.Embedding.Model = c.String("embedding-model")
	}
	if c.IsSet("api-type") {
		cfg.Embedding.APIType = c.String("api-type")
	}
	if c.IsSet("api-version") {
		cfg.Embedding.APIVersion = c.String("api-version")
	}
}

// embeddingConfig resolves the embedding client settings. The key comes from
// the api-key flag when given, otherwise from the variable named in the file.
func embeddingConfig(c *cli.Context, cfg *config.File) *ai.Config {
	aiConfig := cfg.AIConfig(os.Getenv)
	if c.IsSet("api-key") {
		aiConfig.APIKey = c.String("api-key")
	}
	return aiConfig
}
