// Package ahocorasick locates evidence words in a document using an
// Aho-Corasick automaton. It wraps the petar-dambovaliev/aho-corasick
// library so every word is found in one pass over the text.
package ahocorasick

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	aho "github.com/petar-dambovaliev/aho-corasick"
)

// Span is one highlighted occurrence with byte offsets into the lowercased
// document. Lowercasing preserves offsets for ASCII and most other text.
type Span struct {
	Start int    // inclusive
	End   int    // exclusive, extended to the end of the enclosing word
	Word  string // the evidence word that matched
}

// Highlighter finds occurrences of a fixed word list.
type Highlighter struct {
	automaton aho.AhoCorasick
	words     []string
}

// NewHighlighter compiles words, lowercased and deduplicated. Empty words
// are skipped.
func NewHighlighter(words []string) *Highlighter {
	seen := make(map[string]bool, len(words))
	h := &Highlighter{}
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" || seen[w] {
			continue
		}
		seen[w] = true
		h.words = append(h.words, w)
	}
	if len(h.words) > 0 {
		builder := aho.NewAhoCorasickBuilder(aho.Opts{
			DFA: true,
		})
		h.automaton = builder.Build(h.words)
	}
	return h
}

// WordCount returns the number of distinct words compiled.
func (h *Highlighter) WordCount() int { return len(h.words) }

// Spans returns non-overlapping occurrences in document order. A match must
// start on a word boundary; it is extended to the end of its word so
// inflected forms ("flames" for "flame") are covered whole. Where matches
// overlap the one starting first wins, then the longest, then the longest
// matched word.
func (h *Highlighter) Spans(doc string) []Span {
	if len(h.words) == 0 || doc == "" {
		return nil
	}
	lower := strings.ToLower(doc)

	var found []Span
	iter := h.automaton.IterOverlappingByte([]byte(lower))
	for next := iter.Next(); next != nil; next = iter.Next() {
		m := *next
		start := m.Start()
		if start > 0 {
			if r, _ := utf8.DecodeLastRuneInString(lower[:start]); isWordRune(r) {
				continue
			}
		}
		end := m.End()
		for end < len(lower) {
			r, size := utf8.DecodeRuneInString(lower[end:])
			if !isWordRune(r) {
				break
			}
			end += size
		}
		found = append(found, Span{Start: start, End: end, Word: h.words[m.Pattern()]})
	}

	sort.Slice(found, func(i, j int) bool {
		if found[i].Start != found[j].Start {
			return found[i].Start < found[j].Start
		}
		if found[i].End != found[j].End {
			return found[i].End > found[j].End
		}
		return len(found[i].Word) > len(found[j].Word)
	})
	spans := found[:0]
	lastEnd := 0
	for _, s := range found {
		if s.Start < lastEnd {
			continue
		}
		spans = append(spans, s)
		lastEnd = s.End
	}
	return spans
}

// Mark returns doc with every span wrapped by mark. When lowercasing changes
// the byte length of doc, the lowercased text is marked instead.
func (h *Highlighter) Mark(doc string, mark func(string) string) string {
	spans := h.Spans(doc)
	if len(spans) == 0 {
		return doc
	}
	text := doc
	if lower := strings.ToLower(doc); len(lower) != len(doc) {
		text = lower
	}

	var sb strings.Builder
	prev := 0
	for _, s := range spans {
		sb.WriteString(text[prev:s.Start])
		sb.WriteString(mark(text[s.Start:s.End]))
		prev = s.End
	}
	sb.WriteString(text[prev:])
	return sb.String()
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
