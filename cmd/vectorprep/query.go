package main

import (
	"fmt"
	"strings"

	"github.com/poiesic/vectorprep"
	"github.com/poiesic/vectorprep/config"
	"github.com/poiesic/vectorprep/core"
	"github.com/poiesic/vectorprep/search"
	"github.com/urfave/cli/v2"
)

func countCommand(c *cli.Context) error {
	db, err := vectorprep.OpenDatabase(c.Context, c.String("dir"))
	if err != nil {
		return fmt.Errorf("failed to open index: %w", err)
	}
	defer db.Close()

	count, err := db.Count(c.Context)
	if err != nil {
		return err
	}
	m := db.Manifest()
	fmt.Fprintf(c.App.Writer, "%s: %d entries (policy %s, model %s, dimension %d)\n",
		db.Dir(), count, m.Policy, m.EmbeddingModel, m.Dimension)
	return nil
}

func queryCommand(c *cli.Context) error {
	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		return fmt.Errorf("query text is required")
	}

	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	applyEmbeddingFlags(c, cfg)

	opts := []vectorprep.DatabaseOption{vectorprep.WithAIConfig(embeddingConfig(c, cfg))}
	if c.IsSet("embedding-model") {
		opts = append(opts, vectorprep.WithEmbeddingModel(c.String("embedding-model")))
	}
	db, err := vectorprep.OpenDatabase(c.Context, c.String("dir"), opts...)
	if err != nil {
		return fmt.Errorf("failed to open index: %w", err)
	}
	defer db.Close()

	searcher, err := db.NewSearcher(search.WithMinSimilarity(float32(c.Float64("min-similarity"))))
	if err != nil {
		return err
	}
	results, err := searcher.FindSimilar(c.Context, query, c.Int("top"))
	if err != nil {
		return err
	}

	fmt.Fprintf(c.App.Writer, "Found %d hits\n", len(results))
	for i, hit := range results {
		md := hit.Entry.Metadata
		fmt.Fprintf(c.App.Writer, "%d: [%0.3f] %s page %s/%s\n    %s\n", i, hit.Score,
			md[core.MetadataSource], md[core.MetadataPage], md[core.MetadataTotalPages], hit.Entry.Text)
	}
	return nil
}
