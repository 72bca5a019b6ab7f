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

package loader

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/poiesic/vectorprep/core"
)

// Location is the set of documents a pipeline ingests: either every entry of
// a directory or an explicit, ordered list of files.
type Location struct {
	dir   string
	files []string
}

// Directory returns a Location listing every regular file in dir.
// Entries are visited in file name order; subdirectories are skipped.
func Directory(dir string) Location {
	return Location{dir: dir}
}

// Files returns a Location over the given paths, visited in the given order.
func Files(paths ...string) Location {
	return Location{files: append([]string(nil), paths...)}
}

// IsDirectory reports whether the location is in directory mode.
func (l Location) IsDirectory() bool {
	return l.dir != ""
}

// Dir returns the directory of a directory-mode location.
func (l Location) Dir() string {
	return l.dir
}

// Validate checks the location is usable without touching the file system.
// A file list may not name the same path twice.
func (l Location) Validate() error {
	if l.dir == "" && len(l.files) == 0 {
		return ErrEmptyLocation
	}
	seen := make(map[string]struct{}, len(l.files))
	for _, f := range l.files {
		if strings.TrimSpace(f) == "" {
			return fmt.Errorf("%w: empty file path", ErrEmptyLocation)
		}
		key := filepath.Clean(f)
		if _, dup := seen[key]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicatePath, f)
		}
		seen[key] = struct{}{}
	}
	return nil
}

func (l Location) String() string {
	if l.IsDirectory() {
		return "dir:" + l.dir
	}
	return fmt.Sprintf("files:%d", len(l.files))
}

// Paths resolves the location into the ordered list of document paths.
func (l Location) Paths() ([]string, error) {
	if !l.IsDirectory() {
		return append([]string(nil), l.files...), nil
	}

	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, core.NewDocumentLoadError(l.dir, err)
	}

	paths := make([]string, 0, len(entries))
	for _, entry := range entries {
		path := filepath.Join(l.dir, entry.Name())
		if entry.IsDir() {
			continue
		}
		if entry.Type()&os.ModeSymlink != 0 {
			info, err := os.Stat(path)
			if err == nil && info.IsDir() {
				continue
			}
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// Load resolves the location and loads every path with src. Pages of one path
// are contiguous and paths keep their resolved order. The first failing path
// aborts the load.
func Load(ctx context.Context, loc Location, src DocumentSource, logger *slog.Logger) ([]core.SourceDocument, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := loc.Validate(); err != nil {
		return nil, core.NewConfigurationError(err)
	}

	paths, err := loc.Paths()
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, core.NewDocumentLoadError(loc.Dir(), ErrNoDocuments)
	}

	var docs []core.SourceDocument
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, core.NewDocumentLoadError(path, err)
		}
		pages, err := src.Load(ctx, path)
		if err != nil {
			if _, ok := core.StageOf(err); !ok {
				err = core.NewDocumentLoadError(path, err)
			}
			logger.Error("failed to load document", "path", path, "err", err)
			return nil, err
		}
		docs = append(docs, pages...)
	}

	logger.Info("loaded documents", "location", loc.String(), "documents", len(paths), "pages", len(docs))
	return docs, nil
}
