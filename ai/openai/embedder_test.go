package openai

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/poiesic/vectorprep/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type embeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

// newEmbeddingServer returns a server that answers each input with a vector
// whose first component is the input length.
func newEmbeddingServer(t *testing.T, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if !strings.HasSuffix(r.URL.Path, "/embeddings") {
			http.NotFound(w, r)
			return
		}
		var req embeddingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		type item struct {
			Object    string    `json:"object"`
			Embedding []float32 `json:"embedding"`
			Index     int       `json:"index"`
		}
		data := make([]item, len(req.Input))
		for i, in := range req.Input {
			data[i] = item{Object: "embedding", Embedding: []float32{float32(len(in)), 1, 0}, Index: i}
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

func TestNewEmbedder_InvalidConfig(t *testing.T) {
	cfg := ai.NewConfig(ai.WithEmbeddingModel(""))
	_, err := NewEmbedder(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "EmbeddingModel")
}

func TestEmbedder_EmbedTexts(t *testing.T) {
	var calls atomic.Int32
	srv := newEmbeddingServer(t, &calls)

	cfg := ai.NewConfig(
		ai.WithEmbeddingHost(srv.URL),
		ai.WithEmbeddingModel("test-model"),
		ai.WithBatchSize(2),
	)
	embedder, err := NewEmbedder(cfg, WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	texts := []string{"a", "bb\nb", "cccc", "dd", "e"}
	vectors, err := embedder.EmbedTexts(t.Context(), texts)
	require.NoError(t, err)
	require.Len(t, vectors, len(texts))

	for i, text := range texts {
		assert.Equal(t, float32(len(text)), vectors[i][0], "vector %d out of order", i)
	}
	// Batch size 2 over 5 texts
	assert.Equal(t, int32(3), calls.Load())
	// Caller's slice is left untouched
	assert.Equal(t, "bb\nb", texts[1])
}

func TestEmbedder_EmbedText(t *testing.T) {
	var calls atomic.Int32
	srv := newEmbeddingServer(t, &calls)

	cfg := ai.NewConfig(ai.WithEmbeddingHost(srv.URL))
	embedder, err := NewEmbedder(cfg, WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	vector, err := embedder.EmbedText(t.Context(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []float32{5, 1, 0}, vector)
}

func TestEmbedder_EmptyInput(t *testing.T) {
	var calls atomic.Int32
	srv := newEmbeddingServer(t, &calls)

	embedder, err := NewEmbedder(ai.NewConfig(ai.WithEmbeddingHost(srv.URL)), WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	vectors, err := embedder.EmbedTexts(t.Context(), nil)
	require.NoError(t, err)
	assert.Empty(t, vectors)
	assert.Zero(t, calls.Load())
}

func TestEmbedder_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"unauthorized"}}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	cfg := ai.NewConfig(ai.WithEmbeddingHost(srv.URL), ai.WithAPIKey("bad"))
	embedder, err := NewEmbedder(cfg, WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	_, err = embedder.EmbedTexts(t.Context(), []string{"text"})
	require.Error(t, err)
}

func TestClientOptions_Azure(t *testing.T) {
	cfg := ai.NewConfig(
		ai.WithEmbeddingHost("https://res.openai.azure.com"),
		ai.WithAPIType(ai.APITypeAzure),
		ai.WithAPIVersion("2023-05-15"),
		ai.WithAPIKey("key"),
		ai.WithEmbeddingModel("ada-deployment"),
	)
	embedder, err := NewEmbedder(cfg)
	require.NoError(t, err)
	assert.NotNil(t, embedder)
}
