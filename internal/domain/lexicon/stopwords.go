package lexicon

import (
	"sort"

	"github.com/corey/percept/internal/ports"
)

// Set is a materialized word set. It implements ports.StopWordSet.
type Set map[string]struct{}

// NewSet builds a Set from words. Duplicates collapse.
func NewSet(words ...string) Set {
	s := make(Set, len(words))
	for _, w := range words {
		s[w] = struct{}{}
	}
	return s
}

// Contains reports whether word is in the set. Safe on a nil Set.
func (s Set) Contains(word string) bool {
	_, ok := s[word]
	return ok
}

// Len returns the number of distinct words.
func (s Set) Len() int { return len(s) }

// Sorted returns the words in lexical order.
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for w := range s {
		out = append(out, w)
	}
	sort.Strings(out)
	return out
}

// Union matches a word present in any member set. Nil members are skipped.
type Union []ports.StopWordSet

// Contains reports whether any member set contains word.
func (u Union) Contains(word string) bool {
	for _, s := range u {
		if s != nil && s.Contains(word) {
			return true
		}
	}
	return false
}
