package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDocument_Fields tests Document structure fields
func TestDocument_Fields(t *testing.T) {
	doc := Document{
		ID:      42,
		Title:   "Paris",
		Content: "Paris is the capital of France.",
		Templates: []Template{
			{Name: "Infobox settlement", Params: []Param{{Name: "country", Value: "France"}}},
		},
		Links: []string{"France"},
	}

	assert.Equal(t, int64(42), doc.ID)
	assert.Equal(t, "Paris", doc.Title)
	require.Len(t, doc.Templates, 1)
	assert.Equal(t, "Infobox settlement", doc.Templates[0].Name)
	assert.Equal(t, "France", doc.Templates[0].Params[0].Value)
	assert.Equal(t, []string{"France"}, doc.Links)
}

func TestChunk_Bytes(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    int
	}{
		{"empty", "", 0},
		{"ascii", "Hello world.", 12},
		{"multibyte", "Zürich", 7},
		{"emoji", "🙂", 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Chunk{Content: tt.content}.Bytes())
		})
	}
}

// TestChunk_LongContent tests chunk with long content
func TestChunk_LongContent(t *testing.T) {
	content := strings.Repeat("a", 10000)
	chunk := Chunk{DocumentID: 1, Position: 3, Content: content}

	assert.Equal(t, 10000, chunk.Bytes())
	assert.Equal(t, 3, chunk.Position)
}

func TestChunkSet_Empty(t *testing.T) {
	assert.Equal(t, 0, ChunkSet{}.Bytes())
}

func TestLink_Unresolved(t *testing.T) {
	link := Link{SourceID: 1, Target: "Nowhere"}
	assert.Nil(t, link.TargetID)

	id := int64(7)
	link.TargetID = &id
	require.NotNil(t, link.TargetID)
	assert.Equal(t, int64(7), *link.TargetID)
}
