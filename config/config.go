// Package config reads the YAML file describing where documents live, how they
// are split and which embedding service indexes them.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/poiesic/vectorprep/ai"
	"github.com/poiesic/vectorprep/chunking"
	"github.com/poiesic/vectorprep/core"
	"github.com/poiesic/vectorprep/ingestion"
	"github.com/poiesic/vectorprep/loader"
	"gopkg.in/yaml.v3"
)

// DefaultFileName is looked up in a directory by LoadFromDir.
const DefaultFileName = "vectorprep.yaml"

// File is the on-disk configuration.
type File struct {
	DataDirectory             string          `yaml:"data_directory"`
	DataFiles                 []string        `yaml:"data_files,omitempty"` // List mode; overrides data_directory
	PersistDirectoryRecursive string          `yaml:"persist_directory_recursive"`
	PersistDirectoryToken     string          `yaml:"persist_directory_token"`
	SplitterType              string          `yaml:"splitter_type"` // "recursive" or "token"
	ChunkSize                 int             `yaml:"chunk_size"`
	ChunkOverlap              int             `yaml:"chunk_overlap"`
	TokenChunkSize            int             `yaml:"token_chunk_size"`
	TokenChunkOverlap         int             `yaml:"token_chunk_overlap"`
	Embedding                 EmbeddingConfig `yaml:"embedding"`
}

// EmbeddingConfig holds embedding service settings.
type EmbeddingConfig struct {
	Model      string `yaml:"model"`
	Host       string `yaml:"host"`
	APIType    string `yaml:"api_type"`    // "openai", "azure", "azure_ad"
	APIVersion string `yaml:"api_version"` // Azure only
	APIKeyEnv  string `yaml:"api_key_env"` // Environment variable holding the API key
	BatchSize  int    `yaml:"batch_size"`
	Dimensions int    `yaml:"dimensions,omitempty"`
}

// Default returns the default configuration.
func Default() *File {
	aiDefaults := ai.DefaultConfig()
	return &File{
		DataDirectory:             "data/docs",
		PersistDirectoryRecursive: "data/vectordb/recursive",
		PersistDirectoryToken:     "data/vectordb/token",
		SplitterType:              chunking.KindRecursive.String(),
		ChunkSize:                 1500,
		ChunkOverlap:              500,
		TokenChunkSize:            250,
		TokenChunkOverlap:         50,
		Embedding: EmbeddingConfig{
			Model:     aiDefaults.EmbeddingModel,
			Host:      aiDefaults.EmbeddingHost,
			APIType:   aiDefaults.APIType,
			APIKeyEnv: "OPENAI_API_KEY",
			BatchSize: aiDefaults.BatchSize,
		},
	}
}

// Load reads configuration from a YAML file on top of the defaults.
// A missing file yields the defaults. Unknown keys are rejected.
func Load(path string) (*File, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, core.NewConfigurationError(fmt.Errorf("reading %s: %w", path, err))
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, core.NewConfigurationError(fmt.Errorf("parsing %s: %w", path, err))
	}
	return cfg, nil
}

// LoadFromDir loads DefaultFileName from dir, or the defaults when absent.
func LoadFromDir(dir string) (*File, error) {
	return Load(filepath.Join(dir, DefaultFileName))
}

// Save writes the configuration as YAML.
func (f *File) Save(path string) error {
	data, err := yaml.Marshal(f)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Location returns the document location: the file list when given, the data
// directory otherwise.
func (f *File) Location() loader.Location {
	if len(f.DataFiles) > 0 {
		return loader.Files(f.DataFiles...)
	}
	return loader.Directory(f.DataDirectory)
}

// Policy returns the splitting policy of the given kind with its own
// size parameters and persist directory.
func (f *File) Policy(kind chunking.Kind) (chunking.Policy, error) {
	switch kind {
	case chunking.KindRecursive:
		return chunking.NewPolicy(kind, chunking.Params{
			ChunkSize:        f.ChunkSize,
			ChunkOverlap:     f.ChunkOverlap,
			PersistDirectory: f.PersistDirectoryRecursive,
		})
	case chunking.KindToken:
		return chunking.NewPolicy(kind, chunking.Params{
			ChunkSize:        f.TokenChunkSize,
			ChunkOverlap:     f.TokenChunkOverlap,
			PersistDirectory: f.PersistDirectoryToken,
		})
	default:
		return chunking.Policy{}, chunking.ErrUnknownKind
	}
}

// PipelineConfig resolves the configured splitter_type into a pipeline config.
func (f *File) PipelineConfig() (ingestion.Config, error) {
	kind, err := chunking.ParseKind(strings.TrimSpace(f.SplitterType))
	if err != nil {
		return ingestion.Config{}, core.NewConfigurationError(err)
	}
	return f.pipelineConfig(kind)
}

// PipelineConfigs resolves one pipeline config per splitter kind, recursive first.
func (f *File) PipelineConfigs() ([]ingestion.Config, error) {
	var out []ingestion.Config
	for _, kind := range []chunking.Kind{chunking.KindRecursive, chunking.KindToken} {
		cfg, err := f.pipelineConfig(kind)
		if err != nil {
			return nil, err
		}
		out = append(out, cfg)
	}
	return out, nil
}

func (f *File) pipelineConfig(kind chunking.Kind) (ingestion.Config, error) {
	policy, err := f.Policy(kind)
	if err != nil {
		return ingestion.Config{}, core.NewConfigurationError(err)
	}
	cfg := ingestion.Config{
		Location:       f.Location(),
		Policy:         policy,
		EmbeddingModel: f.Embedding.Model,
	}
	if err := cfg.Validate(); err != nil {
		return ingestion.Config{}, core.NewConfigurationError(err)
	}
	return cfg, nil
}

// AIConfig builds the embedding client configuration. The API key is read
// through lookup from the variable named by api_key_env; callers usually pass
// os.Getenv. An unset key falls back to the ai package default.
func (f *File) AIConfig(lookup func(string) string) *ai.Config {
	opts := []ai.ConfigOption{
		ai.WithEmbeddingHost(f.Embedding.Host),
		ai.WithEmbeddingModel(f.Embedding.Model),
		ai.WithAPIType(f.Embedding.APIType),
		ai.WithAPIVersion(f.Embedding.APIVersion),
		ai.WithDimensions(f.Embedding.Dimensions),
	}
	if f.Embedding.BatchSize > 0 {
		opts = append(opts, ai.WithBatchSize(f.Embedding.BatchSize))
	}
	if f.Embedding.APIKeyEnv != "" && lookup != nil {
		if key := lookup(f.Embedding.APIKeyEnv); key != "" {
			opts = append(opts, ai.WithAPIKey(key))
		}
	}
	return ai.NewConfig(opts...)
}
