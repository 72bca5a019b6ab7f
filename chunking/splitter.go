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

package chunking

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/vectorprep/core"
	"github.com/tmc/langchaingo/textsplitter"
)

// Separators used by the recursive policy, tried in order.
var recursiveSeparators = []string{"\n\n", "\n", " ", ""}

// Splitter applies one Policy to page documents.
type Splitter struct {
	policy   Policy
	encoding string
	splitter textsplitter.TextSplitter
	logger   *slog.Logger
}

// Option configures a Splitter.
type Option func(*Splitter)

// WithLogger sets the logger for the splitter.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Splitter) {
		s.logger = logger
	}
}

// WithEncoding sets the BPE used by the token policy.
func WithEncoding(name string) Option {
	return func(s *Splitter) {
		s.encoding = name
	}
}

// NewSplitter validates policy and builds the splitter it selects.
func NewSplitter(policy Policy, opts ...Option) (*Splitter, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}

	s := &Splitter{
		policy:   policy,
		encoding: DefaultEncoding,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "splitter", "policy", policy.Kind().String())

	params := policy.Params()
	switch policy.Kind() {
	case KindRecursive:
		s.splitter = textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(params.ChunkSize),
			textsplitter.WithChunkOverlap(params.ChunkOverlap),
			textsplitter.WithSeparators(recursiveSeparators),
		)
	case KindToken:
		// Resolve the encoding now so a bad name fails at construction
		if _, err := encoding(s.encoding); err != nil {
			return nil, err
		}
		s.splitter = textsplitter.NewTokenSplitter(
			textsplitter.WithChunkSize(params.ChunkSize),
			textsplitter.WithChunkOverlap(params.ChunkOverlap),
			textsplitter.WithEncodingName(s.encoding),
		)
	}
	return s, nil
}

// Policy returns the policy the splitter applies.
func (s *Splitter) Policy() Policy {
	return s.policy
}

// Split cuts every document into chunks. Chunks of one page are numbered from 0
// and pages keep their input order. Whitespace-only pieces are dropped. The
// input is not modified.
func (s *Splitter) Split(docs []core.SourceDocument) ([]core.Chunk, error) {
	chunks := make([]core.Chunk, 0, len(docs))
	for _, doc := range docs {
		texts, err := s.splitText(doc.Text)
		if err != nil {
			return nil, core.NewChunkError(doc.Source, fmt.Errorf("page %d: %w", doc.Page, err))
		}

		index := 0
		for _, text := range texts {
			if strings.TrimSpace(text) == "" {
				continue
			}
			chunks = append(chunks, core.Chunk{
				ID:         core.ChunkID(doc.Source, doc.Page, index, text),
				Text:       text,
				Source:     doc.Source,
				Page:       doc.Page,
				TotalPages: doc.TotalPages,
				Index:      index,
			})
			index++
		}
	}

	s.logger.Info("chunked documents", "pages", len(docs), "chunks", len(chunks))
	return chunks, nil
}

// splitText runs the underlying splitter; tiktoken panics on disallowed special tokens.
func (s *Splitter) splitText(text string) (texts []string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			texts = nil
			err = fmt.Errorf("splitter failed: %v", rec)
		}
	}()
	return s.splitter.SplitText(text)
}

// Measure returns the size of text in the policy's unit.
func (s *Splitter) Measure(text string) (int, error) {
	if s.policy.Kind() == KindToken {
		return CountTokens(s.encoding, text)
	}
	return len([]rune(text)), nil
}
