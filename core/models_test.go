package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIDFromContent(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		wantSame bool
	}{
		{
			name:     "same content produces same ID",
			content:  "test content",
			wantSame: true,
		},
		{
			name:     "empty string",
			content:  "",
			wantSame: true,
		},
		{
			name:     "long content",
			content:  "This is a much longer piece of content that should still hash consistently",
			wantSame: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id1 := IDFromContent(tt.content)
			id2 := IDFromContent(tt.content)

			if tt.wantSame && id1 != id2 {
				t.Errorf("IDFromContent() produced different IDs for same content: %d vs %d", id1, id2)
			}
		})
	}
}

func TestIDFromContent_Different(t *testing.T) {
	id1 := IDFromContent("content1")
	id2 := IDFromContent("content2")

	if id1 == id2 {
		t.Errorf("IDFromContent() produced same ID for different content")
	}
}

func TestChunkID(t *testing.T) {
	base := ChunkID("docs/a.pdf", 1, 0, "hello")

	assert.Equal(t, base, ChunkID("docs/a.pdf", 1, 0, "hello"))
	assert.NotEqual(t, base, ChunkID("docs/b.pdf", 1, 0, "hello"), "source must change the ID")
	assert.NotEqual(t, base, ChunkID("docs/a.pdf", 2, 0, "hello"), "page must change the ID")
	assert.NotEqual(t, base, ChunkID("docs/a.pdf", 1, 1, "hello"), "index must change the ID")
	assert.NotEqual(t, base, ChunkID("docs/a.pdf", 1, 0, "hello!"), "text must change the ID")
}

func TestChunk_Metadata(t *testing.T) {
	chunk := Chunk{
		Text:       "some text",
		Source:     "/data/a.pdf",
		Page:       3,
		TotalPages: 7,
		Index:      2,
	}

	assert.Equal(t, map[string]string{
		MetadataSource:     "/data/a.pdf",
		MetadataPage:       "3",
		MetadataTotalPages: "7",
		MetadataChunk:      "2",
	}, chunk.Metadata())
}
