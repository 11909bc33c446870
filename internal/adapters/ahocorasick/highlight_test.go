package ahocorasick

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// =============================================================================
// Highlighter: one-pass location of evidence words in a document
// =============================================================================

func bracket(s string) string { return "[" + s + "]" }

func TestHighlighter_FindsWholeWords(t *testing.T) {
	h := NewHighlighter([]string{"fire", "flame"})
	spans := h.Spans("The fire and the flame")

	assert.Equal(t, []Span{
		{Start: 4, End: 8, Word: "fire"},
		{Start: 17, End: 22, Word: "flame"},
	}, spans)
}

func TestHighlighter_CaseInsensitive(t *testing.T) {
	h := NewHighlighter([]string{"Fire"})
	assert.Equal(t, "[FIRE] burns", h.Mark("FIRE burns", bracket))
}

func TestHighlighter_ExtendsInflectedForms(t *testing.T) {
	h := NewHighlighter([]string{"flame"})
	assert.Equal(t, "two [flames]", h.Mark("two flames", bracket))
}

func TestHighlighter_RequiresWordStart(t *testing.T) {
	h := NewHighlighter([]string{"ire"})
	assert.Empty(t, h.Spans("fire"))
}

func TestHighlighter_OverlapPrefersLongest(t *testing.T) {
	h := NewHighlighter([]string{"camp", "campfire", "fire"})
	spans := h.Spans("a campfire")

	assert.Len(t, spans, 1)
	assert.Equal(t, "campfire", spans[0].Word)
	assert.Equal(t, "a [campfire]", h.Mark("a campfire", bracket))
}

func TestHighlighter_DeduplicatesWords(t *testing.T) {
	h := NewHighlighter([]string{"lamp", "LAMP", " lamp ", ""})
	assert.Equal(t, 1, h.WordCount())
}

func TestHighlighter_Empty(t *testing.T) {
	h := NewHighlighter(nil)
	assert.Nil(t, h.Spans("anything"))
	assert.Equal(t, "anything", h.Mark("anything", bracket))
}
