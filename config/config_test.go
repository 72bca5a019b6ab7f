package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/poiesic/vectorprep/ai"
	"github.com/poiesic/vectorprep/chunking"
	"github.com/poiesic/vectorprep/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), DefaultFileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := writeFile(t, `
data_directory: docs
persist_directory_recursive: out/rec
persist_directory_token: out/tok
splitter_type: token
chunk_size: 800
chunk_overlap: 100
token_chunk_size: 300
token_chunk_overlap: 30
embedding:
  model: text-embedding-ada-002
  host: https://example.openai.azure.com
  api_type: azure
  api_version: "2023-05-15"
  api_key_env: AZURE_KEY
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "docs", cfg.DataDirectory)
	assert.Equal(t, "token", cfg.SplitterType)
	assert.Equal(t, 800, cfg.ChunkSize)
	assert.Equal(t, 30, cfg.TokenChunkOverlap)
	assert.Equal(t, "azure", cfg.Embedding.APIType)
	assert.Equal(t, "2023-05-15", cfg.Embedding.APIVersion)
	// Not in the file, so the default survives.
	assert.Equal(t, Default().Embedding.BatchSize, cfg.Embedding.BatchSize)
}

func TestLoad_EmptyFile(t *testing.T) {
	cfg, err := Load(writeFile(t, ""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("unknown key", func(t *testing.T) {
		_, err := Load(writeFile(t, "chunk_sise: 10\n"))
		require.Error(t, err)
		assert.ErrorIs(t, err, core.ErrConfiguration)
		assert.Contains(t, err.Error(), "chunk_sise")
	})

	t.Run("malformed yaml", func(t *testing.T) {
		_, err := Load(writeFile(t, "chunk_size: [1, 2\n"))
		assert.ErrorIs(t, err, core.ErrConfiguration)
	})

	t.Run("path is a directory", func(t *testing.T) {
		_, err := Load(t.TempDir())
		assert.ErrorIs(t, err, core.ErrConfiguration)
	})
}

func TestLoadFromDir(t *testing.T) {
	dir := t.TempDir()
	cfg, err := LoadFromDir(dir)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultFileName), []byte("chunk_size: 42\nchunk_overlap: 2\n"), 0644))
	cfg, err = LoadFromDir(dir)
	require.NoError(t, err)
	assert.Equal(t, 42, cfg.ChunkSize)
}

func TestSave_RoundTrip(t *testing.T) {
	cfg := Default()
	cfg.DataFiles = []string{"a.pdf", "b.pdf"}
	cfg.SplitterType = "token"

	path := filepath.Join(t.TempDir(), "out.yaml")
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestPipelineConfig(t *testing.T) {
	t.Run("recursive", func(t *testing.T) {
		cfg := Default()
		pc, err := cfg.PipelineConfig()
		require.NoError(t, err)

		assert.Equal(t, chunking.KindRecursive, pc.Policy.Kind())
		assert.Equal(t, 1500, pc.Policy.Params().ChunkSize)
		assert.Equal(t, 500, pc.Policy.Params().ChunkOverlap)
		assert.Equal(t, cfg.PersistDirectoryRecursive, pc.Policy.Directory())
		assert.Equal(t, cfg.Embedding.Model, pc.EmbeddingModel)
		assert.True(t, pc.Location.IsDirectory())
		assert.Equal(t, "data/docs", pc.Location.Dir())
	})

	t.Run("token uses token parameters and directory", func(t *testing.T) {
		cfg := Default()
		cfg.SplitterType = " Token "
		pc, err := cfg.PipelineConfig()
		require.NoError(t, err)

		assert.Equal(t, chunking.KindToken, pc.Policy.Kind())
		assert.Equal(t, 250, pc.Policy.Params().ChunkSize)
		assert.Equal(t, 50, pc.Policy.Params().ChunkOverlap)
		assert.Equal(t, cfg.PersistDirectoryToken, pc.Policy.Directory())
	})

	t.Run("file list", func(t *testing.T) {
		cfg := Default()
		cfg.DataFiles = []string{"x.pdf"}
		pc, err := cfg.PipelineConfig()
		require.NoError(t, err)
		assert.False(t, pc.Location.IsDirectory())
	})

	t.Run("unknown splitter type", func(t *testing.T) {
		cfg := Default()
		cfg.SplitterType = "semantic"
		_, err := cfg.PipelineConfig()
		assert.ErrorIs(t, err, core.ErrConfiguration)
		assert.ErrorIs(t, err, chunking.ErrUnknownKind)
	})

	t.Run("overlap not below size", func(t *testing.T) {
		cfg := Default()
		cfg.ChunkOverlap = cfg.ChunkSize
		_, err := cfg.PipelineConfig()
		assert.ErrorIs(t, err, core.ErrConfiguration)
		assert.ErrorIs(t, err, chunking.ErrInvalidOverlap)
	})
}

func TestPipelineConfigs(t *testing.T) {
	configs, err := Default().PipelineConfigs()
	require.NoError(t, err)
	require.Len(t, configs, 2)
	assert.Equal(t, chunking.KindRecursive, configs[0].Policy.Kind())
	assert.Equal(t, chunking.KindToken, configs[1].Policy.Kind())
	assert.NotEqual(t, configs[0].Policy.Directory(), configs[1].Policy.Directory())
}

func TestAIConfig(t *testing.T) {
	cfg := Default()
	cfg.Embedding.APIKeyEnv = "TEST_KEY"

	t.Run("key from lookup", func(t *testing.T) {
		ac := cfg.AIConfig(func(name string) string {
			if name == "TEST_KEY" {
				return "sk-123"
			}
			return ""
		})
		assert.Equal(t, "sk-123", ac.APIKey)
		assert.Equal(t, cfg.Embedding.Model, ac.EmbeddingModel)
		require.NoError(t, ac.Validate())
	})

	t.Run("unset key keeps default", func(t *testing.T) {
		ac := cfg.AIConfig(func(string) string { return "" })
		assert.Equal(t, ai.DefaultConfig().APIKey, ac.APIKey)
	})

	t.Run("azure settings", func(t *testing.T) {
		azure := Default()
		azure.Embedding.APIType = ai.APITypeAzure
		azure.Embedding.APIVersion = "2023-05-15"
		ac := azure.AIConfig(nil)
		assert.True(t, ac.IsAzure())
		assert.Equal(t, "2023-05-15", ac.APIVersion)
	})
}
