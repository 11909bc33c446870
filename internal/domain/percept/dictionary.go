// Package percept is the percept scoring engine: the immutable dictionary,
// the corpus views derived from it, evidence collection and aggregation,
// scoring and ranking.
//
// Everything built by Build is read-only afterwards. An *Engine may be shared
// by any number of concurrent Analyze calls without locking; a reload builds a
// new Engine rather than mutating the old one.
package percept

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// PerceptID is a canonical percept identifier.
type PerceptID string

// Dictionary maps normalized words to the percepts they evidence and percepts
// to their member terms. It is immutable once built.
type Dictionary struct {
	frequency map[string][]PerceptID
	members   map[PerceptID][]string
	percepts  []PerceptID
	orphans   []PerceptID
	print     uint64
}

// NewDictionary builds a dictionary from a frequency index and a membership
// index. Inputs are copied. Words and member terms are lowercased, and every
// list is deduplicated and sorted so lookups are order-independent.
func NewDictionary(frequency map[string][]PerceptID, members map[PerceptID][]string) *Dictionary {
	d := &Dictionary{
		frequency: make(map[string][]PerceptID, len(frequency)),
		members:   make(map[PerceptID][]string, len(members)),
	}

	for word, ids := range frequency {
		w := strings.ToLower(strings.TrimSpace(word))
		if w == "" {
			continue
		}
		d.frequency[w] = mergeIDs(d.frequency[w], ids)
	}
	for id, terms := range members {
		lowered := make([]string, 0, len(terms))
		for _, t := range terms {
			if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
				lowered = append(lowered, t)
			}
		}
		d.members[id] = mergeStrings(d.members[id], lowered)
	}

	d.percepts = make([]PerceptID, 0, len(d.members))
	for id := range d.members {
		d.percepts = append(d.percepts, id)
	}
	sortIDs(d.percepts)

	seen := make(map[PerceptID]bool)
	for _, ids := range d.frequency {
		for _, id := range ids {
			if seen[id] || d.PerceptLength(id) > 0 {
				continue
			}
			seen[id] = true
			d.orphans = append(d.orphans, id)
		}
	}
	sortIDs(d.orphans)

	d.print = d.fingerprint()
	return d
}

// Lookup returns the percepts a word evidences, sorted. The returned slice
// must not be modified.
func (d *Dictionary) Lookup(word string) []PerceptID {
	return d.frequency[word]
}

// Contains reports whether word is a key of the frequency index. It lets the
// dictionary serve as the lemmatizer vocabulary.
func (d *Dictionary) Contains(word string) bool {
	_, ok := d.frequency[word]
	return ok
}

// PerceptLength returns the member count of a percept, or 0 if it is unknown.
func (d *Dictionary) PerceptLength(id PerceptID) int {
	return len(d.members[id])
}

// Members returns a copy of a percept's member terms.
func (d *Dictionary) Members(id PerceptID) []string {
	m, ok := d.members[id]
	if !ok {
		return nil
	}
	out := make([]string, len(m))
	copy(out, m)
	return out
}

// Percepts returns the ids of the membership index, sorted.
func (d *Dictionary) Percepts() []PerceptID {
	out := make([]PerceptID, len(d.percepts))
	copy(out, d.percepts)
	return out
}

// Orphans returns percepts referenced by the frequency index with unknown or
// zero cardinality. Evidence for them is always dropped.
func (d *Dictionary) Orphans() []PerceptID {
	out := make([]PerceptID, len(d.orphans))
	copy(out, d.orphans)
	return out
}

// WordCount returns the number of distinct words in the frequency index.
func (d *Dictionary) WordCount() int { return len(d.frequency) }

// DisplayName returns the human-readable name of a percept.
func (d *Dictionary) DisplayName(id PerceptID) string {
	return FormatName(string(id))
}

// Fingerprint identifies the dictionary content. Two dictionaries built from
// the same records have the same fingerprint regardless of record order.
func (d *Dictionary) Fingerprint() string {
	return fmt.Sprintf("%016x", d.print)
}

func (d *Dictionary) fingerprint() uint64 {
	h := xxhash.New()

	words := make([]string, 0, len(d.frequency))
	for w := range d.frequency {
		words = append(words, w)
	}
	sort.Strings(words)
	for _, w := range words {
		_, _ = h.WriteString(w)
		for _, id := range d.frequency[w] {
			_, _ = h.WriteString("\x1f" + string(id))
		}
		_, _ = h.WriteString("\x1e")
	}

	_, _ = h.WriteString("\x1d")
	for _, id := range d.percepts {
		_, _ = h.WriteString(string(id))
		for _, m := range d.members[id] {
			_, _ = h.WriteString("\x1f" + m)
		}
		_, _ = h.WriteString("\x1e")
	}
	return h.Sum64()
}

func mergeIDs(dst, src []PerceptID) []PerceptID {
	seen := make(map[PerceptID]bool, len(dst)+len(src))
	out := make([]PerceptID, 0, len(dst)+len(src))
	for _, list := range [][]PerceptID{dst, src} {
		for _, id := range list {
			if id == "" || seen[id] {
				continue
			}
			seen[id] = true
			out = append(out, id)
		}
	}
	sortIDs(out)
	return out
}

func mergeStrings(dst, src []string) []string {
	seen := make(map[string]bool, len(dst)+len(src))
	out := make([]string, 0, len(dst)+len(src))
	for _, list := range [][]string{dst, src} {
		for _, s := range list {
			if seen[s] {
				continue
			}
			seen[s] = true
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}

func sortIDs(ids []PerceptID) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}
