// Package lexicon turns raw document text into normalized word lists.
// All functions are deterministic and hold no mutable state after construction,
// so a Normalizer may be shared by concurrent requests.
package lexicon

import (
	"regexp"

	"golang.org/x/text/unicode/norm"
)

// wordPunctRe matches a run of word characters or a run of anything that is
// neither a word character nor whitespace. "Hello, world!!" ->
// ["Hello", ",", "world", "!!"].
var wordPunctRe = regexp.MustCompile(`[\p{L}\p{M}\p{N}_]+|[^\p{L}\p{M}\p{N}_\s]+`)

// WordPunct is the word/punctuation tokenizer. It implements ports.Tokenizer.
type WordPunct struct{}

// Tokenize splits text into word and punctuation tokens, case preserved.
// Input is NFC-normalized first so composed and decomposed accents produce
// the same tokens. Returns nil for input with no tokens.
func (WordPunct) Tokenize(text string) []string {
	if len(text) == 0 {
		return nil
	}
	tokens := wordPunctRe.FindAllString(norm.NFC.String(text), -1)
	if len(tokens) == 0 {
		return nil
	}
	return tokens
}
