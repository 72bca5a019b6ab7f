package core

//go:generate go run ../cmd/musgen

import (
	"encoding/binary"
	"strconv"
	"strings"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is generated using content-based hashing.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Metadata keys attached to chunks and index entries.
const (
	MetadataSource     = "source"
	MetadataPage       = "page"
	MetadataTotalPages = "total_pages"
	MetadataChunk      = "chunk"
)

// SourceDocument is the text of a single page of an ingested document.
type SourceDocument struct {
	Text       string
	Source     string // Path of the originating file
	Page       int    // 1-based page number
	TotalPages int
}

// Chunk is a bounded text segment cut from a SourceDocument.
type Chunk struct {
	ID         ID
	Text       string
	Source     string
	Page       int
	TotalPages int
	Index      int // Position of the chunk within its page, starting at 0
}

// ChunkID derives the content ID of a chunk from its provenance and text.
// Re-chunking the same page with the same settings yields the same IDs.
func ChunkID(source string, page, index int, text string) ID {
	var b strings.Builder
	b.Grow(len(source) + len(text) + 24)
	b.WriteString(source)
	b.WriteByte('|')
	b.WriteString(strconv.Itoa(page))
	b.WriteByte('|')
	b.WriteString(strconv.Itoa(index))
	b.WriteByte('|')
	b.WriteString(text)
	return IDFromContent(b.String())
}

// Metadata returns the provenance of the chunk as string metadata.
func (c *Chunk) Metadata() map[string]string {
	return map[string]string{
		MetadataSource:     c.Source,
		MetadataPage:       strconv.Itoa(c.Page),
		MetadataTotalPages: strconv.Itoa(c.TotalPages),
		MetadataChunk:      strconv.Itoa(c.Index),
	}
}

// IndexEntry is a persisted (vector, text, metadata) triple.
type IndexEntry struct {
	Id         ID
	Text       string
	Vector     []float32
	Metadata   map[string]string
	InsertedAt time.Time
}

// Manifest describes how a vector index was built.
// An index holds exactly one manifest.
type Manifest struct {
	Policy         string
	ChunkSize      int
	ChunkOverlap   int
	EmbeddingModel string
	Dimension      int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// SearchResult is an index entry matched by a similarity query.
type SearchResult struct {
	Entry *IndexEntry
	Score float32
}
