package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/poiesic/vectorprep"
	"github.com/poiesic/vectorprep/ai/openai"
	"github.com/poiesic/vectorprep/config"
	"github.com/poiesic/vectorprep/reembed"
	"github.com/poiesic/vectorprep/storage/badger"
	"github.com/urfave/cli/v2"
)

func reembedCommand(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt)
	defer stop()

	srcPath, dstPath := c.String("dir"), c.String("out")
	if filepath.Clean(srcPath) == filepath.Clean(dstPath) {
		return fmt.Errorf("out must differ from dir")
	}
	if !c.IsSet("embedding-model") {
		return fmt.Errorf("embedding-model is required")
	}

	reembedConfig := &reembed.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
	}
	if reembedConfig.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if reembedConfig.ReportInterval <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}
	if reembedConfig.MaxRetries <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	applyEmbeddingFlags(c, cfg)
	aiConfig := embeddingConfig(c, cfg)

	embedder, err := openai.NewEmbedder(aiConfig)
	if err != nil {
		return fmt.Errorf("failed to create embedder: %w", err)
	}

	db, err := vectorprep.OpenDatabase(ctx, srcPath, vectorprep.WithEmbedder(embedder))
	if err != nil {
		return fmt.Errorf("failed to open index: %w", err)
	}
	defer db.Close()

	backend, err := badger.OpenBackend(dstPath, false)
	if err != nil {
		return fmt.Errorf("failed to open target index: %w", err)
	}
	defer backend.Close()

	reembedder, err := reembed.NewReembedder(
		reembed.Source{Index: db.IndexRepository(), Manifest: db.Manifest()},
		reembed.Target{Index: badger.NewIndexRepository(backend), Manifests: badger.NewManifestRepository(backend)},
		embedder, aiConfig.EmbeddingModel, reembedConfig, c.App.ErrWriter)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.App.ErrWriter, "Source: %s (%s)\n", srcPath, db.Manifest().EmbeddingModel)
	fmt.Fprintf(c.App.ErrWriter, "Target: %s\n", dstPath)
	fmt.Fprintf(c.App.ErrWriter, "Embedding host: %s\n", aiConfig.EmbeddingHost)
	fmt.Fprintf(c.App.ErrWriter, "Embedding model: %s\n", aiConfig.EmbeddingModel)
	fmt.Fprintln(c.App.ErrWriter)

	n, err := reembedder.Run(ctx)
	if err != nil {
		return fmt.Errorf("reembedding failed: %w", err)
	}
	if err := backend.Sync(); err != nil {
		return fmt.Errorf("failed to sync target index: %w", err)
	}

	fmt.Fprintf(c.App.Writer, "Reembedded %d entries into %s\n", n, dstPath)
	return nil
}
