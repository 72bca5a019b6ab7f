package loader

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/poiesic/vectorprep/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFixture(t *testing.T, dir, name string, pages ...string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, WritePDF(path, pages...))
	return path
}

func TestPDFSource_LoadPages(t *testing.T) {
	dir := t.TempDir()
	path := writeFixture(t, dir, "doc.pdf", "First page text", "Second page\nwith two lines")

	docs, err := NewPDFSource().Load(t.Context(), path)
	require.NoError(t, err)
	require.Len(t, docs, 2)

	assert.Equal(t, "First page text", docs[0].Text)
	assert.Equal(t, 1, docs[0].Page)
	assert.Equal(t, 2, docs[0].TotalPages)
	assert.Equal(t, path, docs[0].Source)

	assert.Equal(t, "Second page\nwith two lines", docs[1].Text)
	assert.Equal(t, 2, docs[1].Page)
	assert.Equal(t, 2, docs[1].TotalPages)
}

func TestPDFSource_EscapedCharacters(t *testing.T) {
	dir := t.TempDir()
	path := writeFixture(t, dir, "esc.pdf", `Costs (net) in C:\data`)

	docs, err := NewPDFSource().Load(t.Context(), path)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, `Costs (net) in C:\data`, docs[0].Text)
}

func TestPDFSource_Errors(t *testing.T) {
	dir := t.TempDir()

	corrupt := filepath.Join(dir, "corrupt.pdf")
	require.NoError(t, os.WriteFile(corrupt, []byte("this is definitely not a pdf document"), 0o644))

	truncated := filepath.Join(dir, "truncated.pdf")
	full := BuildPDF("some text on a page that will be cut off")
	require.NoError(t, os.WriteFile(truncated, full[:len(full)/2], 0o644))

	empty := filepath.Join(dir, "empty.pdf")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))

	tests := []struct {
		name string
		path string
	}{
		{"missing file", filepath.Join(dir, "missing.pdf")},
		{"corrupt content", corrupt},
		{"truncated file", truncated},
		{"empty file", empty},
		{"directory", dir},
	}

	src := NewPDFSource()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := src.Load(t.Context(), tt.path)
			require.Error(t, err)
			assert.ErrorIs(t, err, core.ErrDocumentLoad)

			var se *core.StageError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, tt.path, se.Path)
			assert.Equal(t, core.StageLoad, se.Stage)
		})
	}
}

func TestPDFSource_CancelledContext(t *testing.T) {
	dir := t.TempDir()
	path := writeFixture(t, dir, "doc.pdf", "text")

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, err := NewPDFSource().Load(ctx, path)
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, err, core.ErrDocumentLoad)
}
