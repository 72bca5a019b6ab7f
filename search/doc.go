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

// Package search answers natural-language queries against a persisted vector index.
//
// The Searcher embeds the query, ranks index entries by cosine similarity and
// adds a verbatim boost to entries containing every significant query word
// (stop words are ignored). Results carry the entry text and its provenance
// metadata (source path, page, chunk position).
package search
