// Package snowball adapts github.com/kljensen/snowball to the lexicon ports:
// a Snowball stemmer and the general-language stop-word lists that ship with it.
package snowball

import (
	"fmt"
	"strings"

	"github.com/kljensen/snowball"
	"github.com/kljensen/snowball/english"
	"github.com/kljensen/snowball/french"
	"github.com/kljensen/snowball/russian"
	"github.com/kljensen/snowball/spanish"

	"github.com/corey/percept/internal/ports"
)

// stopWordLists maps a language name to its stop-word predicate.
var stopWordLists = map[string]func(string) bool{
	"english": english.IsStopWord,
	"french":  french.IsStopWord,
	"russian": russian.IsStopWord,
	"spanish": spanish.IsStopWord,
}

// Languages returns the languages with a stop-word list, sorted.
func Languages() []string {
	return []string{"english", "french", "russian", "spanish"}
}

// Stemmer implements ports.Stemmer.
type Stemmer struct{}

// Stem returns the Snowball stem of word. Stop words are stemmed too. An
// unsupported language leaves the word unchanged.
func (Stemmer) Stem(word, lang string) string {
	if word == "" {
		return word
	}
	stem, err := snowball.Stem(word, strings.ToLower(lang), true)
	if err != nil || stem == "" {
		return word
	}
	return stem
}

// StopWords implements ports.StopWordSource.
type StopWords struct{}

// ForLanguage returns the built-in stop-word list for lang.
func (StopWords) ForLanguage(lang string) (ports.StopWordSet, error) {
	is, ok := stopWordLists[strings.ToLower(lang)]
	if !ok {
		return nil, fmt.Errorf("no stop-word list for language %q", lang)
	}
	return predicate(is), nil
}

type predicate func(string) bool

func (p predicate) Contains(word string) bool { return p(word) }
