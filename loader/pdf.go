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
	"io"
	"log/slog"
	"os"

	"github.com/poiesic/vectorprep/core"
	"github.com/tmc/langchaingo/documentloaders"
	"github.com/tmc/langchaingo/schema"
)

// DocumentSource parses a single path into ordered page documents.
type DocumentSource interface {
	// Load returns one SourceDocument per page of the document at path.
	// Failures are DocumentLoadErrors naming path.
	Load(ctx context.Context, path string) ([]core.SourceDocument, error)
}

// PDFSource loads PDF files page by page.
type PDFSource struct {
	password string
	logger   *slog.Logger
}

// PDFOption configures a PDFSource.
type PDFOption func(*PDFSource)

// WithPassword sets the password used to open encrypted PDFs.
func WithPassword(password string) PDFOption {
	return func(s *PDFSource) {
		s.password = password
	}
}

// WithLogger sets the logger for the source.
func WithLogger(logger *slog.Logger) PDFOption {
	return func(s *PDFSource) {
		s.logger = logger
	}
}

// NewPDFSource creates a PDF document source.
func NewPDFSource(opts ...PDFOption) *PDFSource {
	s := &PDFSource{logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "pdf-source")
	return s
}

// Load implements DocumentSource.
func (s *PDFSource) Load(ctx context.Context, path string) ([]core.SourceDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, core.NewDocumentLoadError(path, err)
	}

	// Opening a FIFO blocks, so check the file type first.
	info, err := os.Stat(path)
	if err != nil {
		return nil, core.NewDocumentLoadError(path, err)
	}
	if !info.Mode().IsRegular() {
		return nil, core.NewDocumentLoadError(path, ErrNotRegularFile)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, core.NewDocumentLoadError(path, err)
	}
	defer f.Close()

	pages, err := s.parse(ctx, f, info.Size())
	if err != nil {
		return nil, core.NewDocumentLoadError(path, err)
	}

	docs := make([]core.SourceDocument, 0, len(pages))
	for i, page := range pages {
		docs = append(docs, core.SourceDocument{
			Text:       page.PageContent,
			Source:     path,
			Page:       metadataInt(page.Metadata, "page", i+1),
			TotalPages: metadataInt(page.Metadata, "total_pages", len(pages)),
		})
	}

	s.logger.Debug("loaded document", "path", path, "pages", len(docs))
	return docs, nil
}

// parse runs the PDF parser, converting parser panics on malformed input into errors.
func (s *PDFSource) parse(ctx context.Context, r io.ReaderAt, size int64) (pages []schema.Document, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			pages = nil
			err = fmt.Errorf("%w: %v", ErrMalformedPDF, rec)
		}
	}()

	var opts []documentloaders.PDFOptions
	if s.password != "" {
		opts = append(opts, documentloaders.WithPassword(s.password))
	}

	pages, err = documentloaders.NewPDF(r, size, opts...).Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedPDF, err)
	}
	return pages, nil
}

func metadataInt(md map[string]any, key string, fallback int) int {
	switch v := md[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return fallback
}
