package reembed

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/poiesic/vectorprep/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockEmbedder for testing
type mockEmbedder struct {
	embedTextsFunc func(ctx context.Context, texts []string) ([][]float32, error)
}

func (m *mockEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	vectors, err := m.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (m *mockEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if m.embedTextsFunc != nil {
		return m.embedTextsFunc(ctx, texts)
	}
	result := make([][]float32, len(texts))
	for i := range texts {
		result[i] = []float32{0, 1, 0, 0}
	}
	return result, nil
}

func TestBatchProcessor_Process(t *testing.T) {
	source := setupTestIndex(t)
	target := setupTestIndex(t)
	ctx := context.Background()

	entries := addEntries(t, source.index, 2)

	processor := NewBatchProcessor(target.index, &mockEmbedder{}, 3, 10*time.Millisecond)
	dim, err := processor.Process(ctx, entries)
	require.NoError(t, err)
	assert.Equal(t, 4, dim)

	for _, original := range entries {
		updated, err := target.index.GetEntry(ctx, original.Id)
		require.NoError(t, err)
		assert.Equal(t, []float32{0, 1, 0, 0}, updated.Vector)
		assert.Equal(t, original.Text, updated.Text)
		assert.Equal(t, original.Metadata, updated.Metadata)
		assert.True(t, original.InsertedAt.Equal(updated.InsertedAt))

		// Input entries keep their old vectors
		assert.Equal(t, []float32{1, 0, 0}, original.Vector)
	}
}

func TestBatchProcessor_EmptyBatch(t *testing.T) {
	target := setupTestIndex(t)
	calls := 0
	embedder := &mockEmbedder{embedTextsFunc: func(ctx context.Context, texts []string) ([][]float32, error) {
		calls++
		return nil, nil
	}}

	dim, err := NewBatchProcessor(target.index, embedder, 3, time.Millisecond).Process(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, dim)
	assert.Zero(t, calls)
}

func TestBatchProcessor_RetriesEmbeddingFailures(t *testing.T) {
	source := setupTestIndex(t)
	target := setupTestIndex(t)
	entries := addEntries(t, source.index, 2)

	calls := 0
	embedder := &mockEmbedder{embedTextsFunc: func(ctx context.Context, texts []string) ([][]float32, error) {
		calls++
		if calls < 3 {
			return nil, errors.New("temporary failure")
		}
		return [][]float32{{1, 1}, {2, 2}}, nil
	}}

	dim, err := NewBatchProcessor(target.index, embedder, 3, time.Millisecond).Process(context.Background(), entries)
	require.NoError(t, err)
	assert.Equal(t, 2, dim)
	assert.Equal(t, 3, calls)
}

func TestBatchProcessor_EmbeddingFailure(t *testing.T) {
	source := setupTestIndex(t)
	target := setupTestIndex(t)
	entries := addEntries(t, source.index, 2)

	calls := 0
	embedder := &mockEmbedder{embedTextsFunc: func(ctx context.Context, texts []string) ([][]float32, error) {
		calls++
		return nil, errors.New("service down")
	}}

	_, err := NewBatchProcessor(target.index, embedder, 2, time.Millisecond).Process(context.Background(), entries)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrEmbeddingBackend)
	assert.Equal(t, 2, calls)

	count, err := target.index.CountEntries(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestBatchProcessor_CountMismatch(t *testing.T) {
	source := setupTestIndex(t)
	target := setupTestIndex(t)
	entries := addEntries(t, source.index, 3)

	embedder := &mockEmbedder{embedTextsFunc: func(ctx context.Context, texts []string) ([][]float32, error) {
		return [][]float32{{1}}, nil
	}}

	_, err := NewBatchProcessor(target.index, embedder, 1, time.Millisecond).Process(context.Background(), entries)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "embedding count mismatch")
}

func TestBatchProcessor_RaggedVectors(t *testing.T) {
	source := setupTestIndex(t)
	target := setupTestIndex(t)
	entries := addEntries(t, source.index, 2)

	embedder := &mockEmbedder{embedTextsFunc: func(ctx context.Context, texts []string) ([][]float32, error) {
		return [][]float32{{1, 0}, {1, 0, 0}}, nil
	}}

	_, err := NewBatchProcessor(target.index, embedder, 1, time.Millisecond).Process(context.Background(), entries)
	require.ErrorIs(t, err, ErrDimensionMismatch)
}
