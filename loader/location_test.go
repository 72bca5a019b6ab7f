package loader

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/poiesic/vectorprep/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubSource returns a fixed number of pages per path without touching disk.
type stubSource struct {
	pages map[string]int
	fail  string
	calls []string
}

func (s *stubSource) Load(ctx context.Context, path string) ([]core.SourceDocument, error) {
	s.calls = append(s.calls, path)
	if path == s.fail {
		return nil, errors.New("parse failed")
	}
	n := s.pages[path]
	docs := make([]core.SourceDocument, n)
	for i := range docs {
		docs[i] = core.SourceDocument{Text: "page", Source: path, Page: i + 1, TotalPages: n}
	}
	return docs, nil
}

func TestLocation_Validate(t *testing.T) {
	assert.ErrorIs(t, Location{}.Validate(), ErrEmptyLocation)
	assert.ErrorIs(t, Files().Validate(), ErrEmptyLocation)
	assert.ErrorIs(t, Files("a.pdf", " ").Validate(), ErrEmptyLocation)
	assert.NoError(t, Files("a.pdf").Validate())
	assert.NoError(t, Directory("/data").Validate())

	assert.ErrorIs(t, Files("a.pdf", "b.pdf", "a.pdf").Validate(), ErrDuplicatePath)
	assert.ErrorIs(t, Files("docs/a.pdf", "docs/./a.pdf").Validate(), ErrDuplicatePath)
	assert.NoError(t, Files("docs/a.pdf", "other/a.pdf").Validate())
}

func TestLoad_DuplicatePath(t *testing.T) {
	path := writeFixture(t, t.TempDir(), "a.pdf", "only page")
	_, err := Load(context.Background(), Files(path, path), NewPDFSource(), nil)
	assert.ErrorIs(t, err, ErrDuplicatePath)
	assert.ErrorIs(t, err, core.ErrConfiguration)
}

func TestLocation_DirectoryPaths(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.pdf", "a.pdf", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))

	paths, err := Directory(dir).Paths()
	require.NoError(t, err)

	// No extension filtering, subdirectories skipped, name order
	assert.Equal(t, []string{
		filepath.Join(dir, "a.pdf"),
		filepath.Join(dir, "b.pdf"),
		filepath.Join(dir, "notes.txt"),
	}, paths)
}

func TestLocation_MissingDirectory(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope")
	_, err := Directory(missing).Paths()
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrDocumentLoad)
	assert.Contains(t, err.Error(), missing)
}

func TestLocation_FilesKeepOrder(t *testing.T) {
	paths, err := Files("z.pdf", "a.pdf", "m.pdf").Paths()
	require.NoError(t, err)
	assert.Equal(t, []string{"z.pdf", "a.pdf", "m.pdf"}, paths)
}

func TestLoad_ListModeGroupsPages(t *testing.T) {
	src := &stubSource{pages: map[string]int{"b.pdf": 3, "a.pdf": 2}}

	docs, err := Load(t.Context(), Files("b.pdf", "a.pdf"), src, nil)
	require.NoError(t, err)
	require.Len(t, docs, 5)

	var sources []string
	for _, d := range docs {
		sources = append(sources, d.Source)
	}
	assert.Equal(t, []string{"b.pdf", "b.pdf", "b.pdf", "a.pdf", "a.pdf"}, sources)
	assert.Equal(t, []int{1, 2, 3}, []int{docs[0].Page, docs[1].Page, docs[2].Page})
}

func TestLoad_FailFast(t *testing.T) {
	src := &stubSource{pages: map[string]int{"a.pdf": 1, "c.pdf": 1}, fail: "b.pdf"}

	_, err := Load(t.Context(), Files("a.pdf", "b.pdf", "c.pdf"), src, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrDocumentLoad)

	var se *core.StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "b.pdf", se.Path)
	assert.Equal(t, []string{"a.pdf", "b.pdf"}, src.calls)
}

func TestLoad_EmptyDirectory(t *testing.T) {
	dir := t.TempDir()
	_, err := Load(t.Context(), Directory(dir), &stubSource{}, nil)
	assert.ErrorIs(t, err, core.ErrDocumentLoad)
	assert.ErrorIs(t, err, ErrNoDocuments)
}

func TestLoad_InvalidLocation(t *testing.T) {
	_, err := Load(t.Context(), Location{}, &stubSource{}, nil)
	assert.ErrorIs(t, err, core.ErrConfiguration)
}

func TestLoad_DirectoryOfPDFs(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, WritePDF(filepath.Join(dir, "a.pdf"), "a one", "a two"))
	require.NoError(t, WritePDF(filepath.Join(dir, "b.pdf"), "b one", "b two", "b three"))

	docs, err := Load(t.Context(), Directory(dir), NewPDFSource(), nil)
	require.NoError(t, err)
	require.Len(t, docs, 5)
	assert.Equal(t, "a one", docs[0].Text)
	assert.Equal(t, "b three", docs[4].Text)
	assert.Equal(t, 3, docs[4].Page)
	assert.Equal(t, 3, docs[4].TotalPages)
}

func TestLoad_CorruptFileInDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, WritePDF(filepath.Join(dir, "a.pdf"), "fine"))
	broken := filepath.Join(dir, "broken.pdf")
	require.NoError(t, os.WriteFile(broken, []byte("garbage bytes"), 0o644))

	_, err := Load(t.Context(), Directory(dir), NewPDFSource(), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrDocumentLoad)
	assert.Contains(t, err.Error(), broken)
}
