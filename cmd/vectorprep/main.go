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

package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/poiesic/vectorprep/config"
	"github.com/poiesic/vectorprep/reembed"
	"github.com/poiesic/vectorprep/search"
	"github.com/urfave/cli/v2"
)

func main() {
	// A missing .env file is not an error.
	_ = godotenv.Load()

	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "vectorprep",
		Usage: "Build persistent vector indexes from PDF documents",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "ingest",
				Usage:  "Load, split and embed documents into a vector index",
				Action: ingestCommand,
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to YAML configuration file",
						Value:   config.DefaultFileName,
					},
					&cli.StringFlag{
						Name:  "data-dir",
						Usage: "Directory of PDF documents",
					},
					&cli.StringSliceFlag{
						Name:  "files",
						Usage: "Explicit list of PDF files; overrides data-dir",
					},
					&cli.StringFlag{
						Name:  "splitter",
						Usage: "Splitter policy (recursive, token)",
					},
					&cli.IntFlag{
						Name:  "chunk-size",
						Usage: "Chunk size for the selected splitter",
					},
					&cli.IntFlag{
						Name:  "chunk-overlap",
						Usage: "Chunk overlap for the selected splitter",
					},
					&cli.StringFlag{
						Name:  "persist-dir",
						Usage: "Index directory for the selected splitter",
					},
					&cli.BoolFlag{
						Name:  "all-policies",
						Usage: "Build the recursive and token indexes concurrently",
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of chunks per embedding request",
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum attempts when the embedding service fails",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
				}, embeddingFlags()...),
			},
			{
				Name:   "count",
				Usage:  "Print the number of entries in an index",
				Action: countCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "dir",
						Aliases:  []string{"d"},
						Usage:    "Path to index directory",
						Required: true,
					},
				},
			},
			{
				Name:   "reembed",
				Usage:  "Rebuild an index with vectors from another embedding model",
				Action: reembedCommand,
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:     "dir",
						Aliases:  []string{"d"},
						Usage:    "Path to source index directory",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "out",
						Aliases:  []string{"o"},
						Usage:    "Path to target index directory",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to YAML configuration file",
						Value:   config.DefaultFileName,
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of entries to embed in each request",
						Value: reembed.DefaultBatchSize,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N entries",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for failed embedding requests",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
				}, embeddingFlags()...),
			},
			{
				Name:      "query",
				Usage:     "Search an index for chunks similar to a query",
				ArgsUsage: "QUERY...",
				Action:    queryCommand,
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:     "dir",
						Aliases:  []string{"d"},
						Usage:    "Path to index directory",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to YAML configuration file",
						Value:   config.DefaultFileName,
					},
					&cli.IntFlag{
						Name:    "top",
						Aliases: []string{"k"},
						Usage:   "Maximum number of results",
						Value:   5,
					},
					&cli.Float64Flag{
						Name:  "min-similarity",
						Usage: "Minimum cosine similarity of a result",
						Value: float64(search.DefaultMinSimilarity),
					},
				}, embeddingFlags()...),
			},
		},
	}
}

// embeddingFlags override the embedding section of the configuration file.
func embeddingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "embedding-host",
			Usage:   "Embedding service host URL",
			EnvVars: []string{"EMBEDDING_HOST"},
		},
		&cli.StringFlag{
			Name:    "embedding-model",
			Usage:   "Embedding model name",
			EnvVars: []string{"EMBEDDING_MODEL"},
		},
		&cli.StringFlag{
			Name:    "api-type",
			Usage:   "Embedding API type (openai, azure, azure_ad)",
			EnvVars: []string{"EMBEDDING_API_TYPE"},
		},
		&cli.StringFlag{
			Name:    "api-version",
			Usage:   "Embedding API version (Azure only)",
			EnvVars: []string{"EMBEDDING_API_VERSION"},
		},
		&cli.StringFlag{
			Name:    "api-key",
			Usage:   "Embedding API key",
			EnvVars: []string{"EMBEDDING_API_KEY"},
		},
	}
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
