package vectordb

import (
	"fmt"
	"strconv"

	"github.com/poiesic/vectorprep/core"
	"github.com/tmc/langchaingo/schema"
)

// MetadataID carries a precomputed entry ID through schema.Document metadata.
const MetadataID = "id"

// integer metadata keys are restored to int on the way out of the index.
var intMetadata = map[string]bool{
	core.MetadataPage:       true,
	core.MetadataTotalPages: true,
	core.MetadataChunk:      true,
}

// FromChunks converts chunks into langchaingo documents ready for AddDocuments.
func FromChunks(chunks []core.Chunk) []schema.Document {
	docs := make([]schema.Document, len(chunks))
	for i := range chunks {
		c := &chunks[i]
		docs[i] = schema.Document{
			PageContent: c.Text,
			Metadata: map[string]any{
				MetadataID:              c.ID,
				core.MetadataSource:     c.Source,
				core.MetadataPage:       c.Page,
				core.MetadataTotalPages: c.TotalPages,
				core.MetadataChunk:      c.Index,
			},
		}
	}
	return docs
}

// documentID returns the ID carried in the document metadata, or one derived
// from its content.
func documentID(doc schema.Document) core.ID {
	switch v := doc.Metadata[MetadataID].(type) {
	case core.ID:
		return v
	case uint64:
		return core.ID(v)
	case string:
		if id, err := strconv.ParseUint(v, 10, 64); err == nil {
			return core.ID(id)
		}
	}
	return core.IDFromContent(doc.PageContent)
}

// flattenMetadata stores every value except the ID as its string form.
func flattenMetadata(metadata map[string]any) map[string]string {
	out := make(map[string]string, len(metadata))
	for k, v := range metadata {
		if k == MetadataID {
			continue
		}
		out[k] = fmt.Sprint(v)
	}
	return out
}

// toDocument converts a search hit back into a langchaingo document.
func toDocument(result *core.SearchResult) schema.Document {
	metadata := make(map[string]any, len(result.Entry.Metadata)+1)
	for k, v := range result.Entry.Metadata {
		if intMetadata[k] {
			if n, err := strconv.Atoi(v); err == nil {
				metadata[k] = n
				continue
			}
		}
		metadata[k] = v
	}
	metadata[MetadataID] = result.Entry.Id
	return schema.Document{
		PageContent: result.Entry.Text,
		Metadata:    metadata,
		Score:       result.Score,
	}
}

// matchesFilters reports whether every filter key equals the entry metadata.
func matchesFilters(entry *core.IndexEntry, filters map[string]string) bool {
	for k, want := range filters {
		if entry.Metadata[k] != want {
			return false
		}
	}
	return true
}
