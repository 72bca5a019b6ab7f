package main

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/poiesic/vectorprep/chunking"
	"github.com/poiesic/vectorprep/config"
	"github.com/poiesic/vectorprep/core"
	"github.com/poiesic/vectorprep/loader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func findCommand(t *testing.T, app *cli.App, name string) *cli.Command {
	t.Helper()
	for _, cmd := range app.Commands {
		if cmd.Name == name {
			return cmd
		}
	}
	t.Fatalf("command %q not found", name)
	return nil
}

func findStringFlag(cmd *cli.Command, name string) *cli.StringFlag {
	for _, flag := range cmd.Flags {
		if f, ok := flag.(*cli.StringFlag); ok && f.Name == name {
			return f
		}
	}
	return nil
}

// runApp runs the command line and returns what was written to stdout.
func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = io.Discard
	err := app.Run(append([]string{"vectorprep", "--log-level", "error"}, args...))
	return out.String(), err
}

// newEmbeddingServer answers each input with a vector whose first component
// is the input length.
func newEmbeddingServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Model string   `json:"model"`
			Input []string `json:"input"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		data := make([]map[string]any, len(req.Input))
		for i, in := range req.Input {
			data[i] = map[string]any{
				"object":    "embedding",
				"embedding": []float32{float32(len(in)), 1, 0},
				"index":     i,
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"data":   data,
			"model":  req.Model,
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func writeDocs(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "docs")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, loader.WritePDF(filepath.Join(dir, "a.pdf"),
		"Alpha page one talks about lanterns.\nIt has two lines.",
		"Alpha page two talks about rivers."))
	require.NoError(t, loader.WritePDF(filepath.Join(dir, "b.pdf"),
		"Beta has a single page about mountains."))
	return dir
}

func TestIngestCommandFlags(t *testing.T) {
	cmd := findCommand(t, newApp(), "ingest")

	t.Run("config has default value", func(t *testing.T) {
		f := findStringFlag(cmd, "config")
		require.NotNil(t, f)
		assert.Equal(t, config.DefaultFileName, f.Value)
	})

	t.Run("max-retries has default value of 3", func(t *testing.T) {
		var retriesFlag *cli.IntFlag
		for _, flag := range cmd.Flags {
			if f, ok := flag.(*cli.IntFlag); ok && f.Name == "max-retries" {
				retriesFlag = f
				break
			}
		}
		require.NotNil(t, retriesFlag)
		assert.Equal(t, 3, retriesFlag.Value)
	})

	t.Run("retry-delay has default value of 1s", func(t *testing.T) {
		var delayFlag *cli.DurationFlag
		for _, flag := range cmd.Flags {
			if f, ok := flag.(*cli.DurationFlag); ok && f.Name == "retry-delay" {
				delayFlag = f
				break
			}
		}
		require.NotNil(t, delayFlag)
		assert.Equal(t, time.Second, delayFlag.Value)
	})

	t.Run("embedding flags read the environment", func(t *testing.T) {
		for name, env := range map[string]string{
			"embedding-host":  "EMBEDDING_HOST",
			"embedding-model": "EMBEDDING_MODEL",
			"api-type":        "EMBEDDING_API_TYPE",
			"api-version":     "EMBEDDING_API_VERSION",
			"api-key":         "EMBEDDING_API_KEY",
		} {
			f := findStringFlag(cmd, name)
			require.NotNil(t, f, name)
			assert.Equal(t, []string{env}, f.EnvVars, name)
			assert.Empty(t, f.Value, name)
		}
	})
}

func TestQueryCommandFlags(t *testing.T) {
	cmd := findCommand(t, newApp(), "query")

	dirFlag := findStringFlag(cmd, "dir")
	require.NotNil(t, dirFlag)
	assert.True(t, dirFlag.Required)

	var topFlag *cli.IntFlag
	for _, flag := range cmd.Flags {
		if f, ok := flag.(*cli.IntFlag); ok && f.Name == "top" {
			topFlag = f
		}
	}
	require.NotNil(t, topFlag)
	assert.Equal(t, 5, topFlag.Value)
}

func TestCommandValidation(t *testing.T) {
	missingConfig := filepath.Join(t.TempDir(), "absent.yaml")

	t.Run("count requires dir", func(t *testing.T) {
		_, err := runApp(t, "count")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "dir")
	})

	t.Run("query requires dir", func(t *testing.T) {
		_, err := runApp(t, "query", "hello")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "dir")
	})

	t.Run("query requires text", func(t *testing.T) {
		_, err := runApp(t, "query", "--dir", t.TempDir())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "query text is required")
	})

	t.Run("count on missing index", func(t *testing.T) {
		_, err := runApp(t, "count", "--dir", filepath.Join(t.TempDir(), "absent"))
		require.Error(t, err)
		assert.ErrorIs(t, err, core.ErrStorage)
	})

	t.Run("max-retries must be positive", func(t *testing.T) {
		_, err := runApp(t, "ingest", "--config", missingConfig, "--max-retries", "0")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max-retries")
	})

	t.Run("unknown splitter", func(t *testing.T) {
		_, err := runApp(t, "ingest", "--config", missingConfig, "--splitter", "semantic")
		require.Error(t, err)
		assert.ErrorIs(t, err, chunking.ErrUnknownKind)
		assert.ErrorIs(t, err, core.ErrConfiguration)
	})

	t.Run("overlap not smaller than size", func(t *testing.T) {
		index := filepath.Join(t.TempDir(), "index")
		_, err := runApp(t, "ingest", "--config", missingConfig,
			"--data-dir", writeDocs(t),
			"--persist-dir", index,
			"--chunk-size", "10", "--chunk-overlap", "10")
		require.Error(t, err)
		assert.ErrorIs(t, err, chunking.ErrInvalidOverlap)
		assert.ErrorIs(t, err, core.ErrConfiguration)

		_, statErr := os.Stat(index)
		assert.True(t, os.IsNotExist(statErr))
	})

	t.Run("reembed requires distinct directories", func(t *testing.T) {
		dir := t.TempDir()
		_, err := runApp(t, "reembed", "--dir", dir, "--out", dir+"/", "--embedding-model", "m")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "out must differ from dir")
	})

	t.Run("reembed requires a model", func(t *testing.T) {
		_, err := runApp(t, "reembed", "--dir", t.TempDir(), "--out", t.TempDir())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "embedding-model")
	})

	t.Run("chunk flags need a single policy", func(t *testing.T) {
		_, err := runApp(t, "ingest", "--config", missingConfig, "--all-policies", "--chunk-size", "100")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "all-policies")
	})
}

func TestIngestCountQuery(t *testing.T) {
	srv := newEmbeddingServer(t)
	docs := writeDocs(t)
	index := filepath.Join(t.TempDir(), "index")
	missingConfig := filepath.Join(t.TempDir(), "absent.yaml")

	out, err := runApp(t, "ingest", "--config", missingConfig,
		"--data-dir", docs,
		"--persist-dir", index,
		"--chunk-size", "200", "--chunk-overlap", "20",
		"--embedding-host", srv.URL,
		"--embedding-model", "test-model",
		"--api-key", "test-key")
	require.NoError(t, err)
	assert.Contains(t, out, "Indexed 3 chunks into "+index)

	out, err = runApp(t, "count", "--dir", index)
	require.NoError(t, err)
	assert.Contains(t, out, "3 entries")
	assert.Contains(t, out, "policy recursive")
	assert.Contains(t, out, "model test-model")
	assert.Contains(t, out, "dimension 3")

	out, err = runApp(t, "query", "--dir", index, "--config", missingConfig,
		"--embedding-host", srv.URL,
		"--min-similarity=-1",
		"--top", "2",
		"lanterns")
	require.NoError(t, err)
	assert.Contains(t, out, "Found 2 hits")
	assert.Contains(t, out, "a.pdf page 1/2")

	rebuilt := filepath.Join(t.TempDir(), "rebuilt")
	out, err = runApp(t, "reembed", "--dir", index, "--out", rebuilt, "--config", missingConfig,
		"--embedding-host", srv.URL,
		"--embedding-model", "new-model")
	require.NoError(t, err)
	assert.Contains(t, out, "Reembedded 3 entries into "+rebuilt)

	out, err = runApp(t, "count", "--dir", rebuilt)
	require.NoError(t, err)
	assert.Contains(t, out, "3 entries")
	assert.Contains(t, out, "policy recursive")
	assert.Contains(t, out, "model new-model")
}

func TestIngestAllPolicies(t *testing.T) {
	srv := newEmbeddingServer(t)
	root := t.TempDir()

	cfg := config.Default()
	cfg.DataDirectory = writeDocs(t)
	cfg.PersistDirectoryRecursive = filepath.Join(root, "recursive")
	cfg.PersistDirectoryToken = filepath.Join(root, "token")
	cfg.Embedding.Host = srv.URL
	cfg.Embedding.Model = "test-model"
	cfgPath := filepath.Join(root, config.DefaultFileName)
	require.NoError(t, cfg.Save(cfgPath))

	out, err := runApp(t, "ingest", "--config", cfgPath, "--all-policies")
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(out, "Indexed 3 chunks"))
	assert.Contains(t, out, cfg.PersistDirectoryRecursive)
	assert.Contains(t, out, cfg.PersistDirectoryToken)

	out, err = runApp(t, "count", "--dir", cfg.PersistDirectoryToken)
	require.NoError(t, err)
	assert.Contains(t, out, "policy token")
}

func TestSetupLogger(t *testing.T) {
	newLoggerApp := func(action cli.ActionFunc) *cli.App {
		return &cli.App{
			Name: "test",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "log-level",
					Aliases: []string{"l"},
					Value:   "info",
				},
			},
			Before: setupLogger,
			Action: action,
		}
	}
	noop := func(c *cli.Context) error { return nil }

	t.Run("valid log levels", func(t *testing.T) {
		testCases := []struct {
			input    string
			expected slog.Level
		}{
			{"debug", slog.LevelDebug},
			{"info", slog.LevelInfo},
			{"warn", slog.LevelWarn},
			{"error", slog.LevelError},
		}

		for _, tc := range testCases {
			t.Run(tc.input, func(t *testing.T) {
				err := newLoggerApp(noop).Run([]string{"test", "--log-level", tc.input})
				require.NoError(t, err)
				assert.True(t, slog.Default().Enabled(t.Context(), tc.expected))
				if tc.expected > slog.LevelDebug {
					assert.False(t, slog.Default().Enabled(t.Context(), tc.expected-1))
				}
			})
		}
	})

	t.Run("case insensitive log levels", func(t *testing.T) {
		for _, tc := range []string{"DEBUG", "Info", "WaRn", "ERROR"} {
			t.Run(tc, func(t *testing.T) {
				err := newLoggerApp(noop).Run([]string{"test", "--log-level", tc})
				require.NoError(t, err)
			})
		}
	})

	t.Run("invalid log level returns error", func(t *testing.T) {
		err := newLoggerApp(noop).Run([]string{"test", "--log-level", "invalid"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid log level")
	})

	t.Run("log-level flag has alias -l", func(t *testing.T) {
		app := newLoggerApp(func(c *cli.Context) error {
			assert.Equal(t, "debug", c.String("log-level"))
			return nil
		})
		require.NoError(t, app.Run([]string{"test", "-l", "debug"}))
	})
}
