// Package golem implements ports.Lemmatizer with the aaaton/golem
// dictionary lemmatizer and its English word list.
package golem

import (
	"fmt"
	"strings"
	"sync"

	"github.com/aaaton/golem/v4"
	"github.com/aaaton/golem/v4/dicts/en"
)

// Language is the only language the bundled dictionary covers.
const Language = "english"

// The dictionary is decompressed once per process and shared by every
// engine build; reloads reuse it.
var english = sync.OnceValues(func() (*golem.Lemmatizer, error) {
	return golem.New(en.New())
})

// Lemmatizer maps a word to its dictionary base form. Words the dictionary
// does not know are returned unchanged.
type Lemmatizer struct {
	lem *golem.Lemmatizer
}

// New returns the English lemmatizer.
func New() (*Lemmatizer, error) {
	lem, err := english()
	if err != nil {
		return nil, fmt.Errorf("load english lemma dictionary: %w", err)
	}
	return &Lemmatizer{lem: lem}, nil
}

// Lemmatize returns the lemma of word. Empty input stays empty.
func (l *Lemmatizer) Lemmatize(word string) string {
	if word == "" {
		return word
	}
	lemma := l.lem.Lemma(word)
	if lemma == "" {
		return word
	}
	return strings.ToLower(lemma)
}

// Known reports whether the dictionary has an entry for word.
func (l *Lemmatizer) Known(word string) bool {
	return l.lem.InDict(word)
}
