package percept

import (
	"sort"
	"strings"

	"github.com/corey/percept/internal/ports"
)

// DefaultHighFrequencyThreshold is the evidenced-percept count above which a
// word is too common to discriminate between percepts.
const DefaultHighFrequencyThreshold = 300

// CorpusOptions controls stop-word derivation.
type CorpusOptions struct {
	// HighFrequencyThreshold: words evidencing more than this many percepts
	// become stop words. Zero or less means DefaultHighFrequencyThreshold.
	HighFrequencyThreshold int
	// SingletonStopWords adds words evidencing exactly one percept.
	SingletonStopWords bool
}

// Corpus holds the read-only views derived from the store records once the raw
// percept ids have been canonicalized through the alternate-name table.
type Corpus struct {
	frequency       map[string][]PerceptID
	bucketedFreq    map[int][]string
	stopWords       []string
	members         map[PerceptID][]string
	bucketedMembers map[int][]PerceptID
	memberList      []string
	names           map[string]PerceptID
	uncanonical     int
}

// NewCorpus canonicalizes the records and derives every view.
//
// names maps raw ids to their canonical entry. A raw id missing from names is
// dropped from every canonicalized view. A nil names map means no table was
// configured, and every raw id is its own canonical id.
func NewCorpus(freq []ports.FrequencyRecord, members []ports.MembershipRecord, names map[string]ports.NameEntry, opts CorpusOptions) *Corpus {
	if opts.HighFrequencyThreshold <= 0 {
		opts.HighFrequencyThreshold = DefaultHighFrequencyThreshold
	}

	c := &Corpus{
		frequency: make(map[string][]PerceptID),
		members:   make(map[PerceptID][]string),
		names:     make(map[string]PerceptID),
	}
	for raw, e := range names {
		c.names[raw] = PerceptID(e.CanonicalID)
	}

	canon := func(raw string) (PerceptID, bool) {
		raw = strings.TrimSpace(raw)
		if names == nil {
			return PerceptID(raw), raw != ""
		}
		id, ok := c.names[raw]
		return id, ok && id != ""
	}

	for _, rec := range freq {
		word := strings.ToLower(strings.TrimSpace(rec.Word))
		if word == "" {
			continue
		}
		var ids []PerceptID
		for _, raw := range rec.Percepts {
			id, ok := canon(raw)
			if !ok {
				c.uncanonical++
				continue
			}
			ids = append(ids, id)
		}
		if len(ids) == 0 {
			continue
		}
		c.frequency[word] = mergeIDs(c.frequency[word], ids)
	}

	rawIDs := make(map[string]bool)
	for _, rec := range members {
		raw := strings.TrimSpace(rec.Percept)
		rawIDs[raw] = true
		id, ok := canon(raw)
		if !ok {
			continue
		}
		terms := make([]string, 0, len(rec.Data))
		for _, t := range rec.Data {
			if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
				terms = append(terms, t)
			}
		}
		c.members[id] = mergeStrings(c.members[id], terms)
	}

	c.memberList = make([]string, 0, len(rawIDs))
	for raw := range rawIDs {
		c.memberList = append(c.memberList, raw)
	}
	sort.Strings(c.memberList)

	c.bucketedFreq = make(map[int][]string)
	for word, ids := range c.frequency {
		c.bucketedFreq[len(ids)] = append(c.bucketedFreq[len(ids)], word)
	}
	for _, words := range c.bucketedFreq {
		sort.Strings(words)
	}

	c.bucketedMembers = make(map[int][]PerceptID)
	for id, terms := range c.members {
		c.bucketedMembers[len(terms)] = append(c.bucketedMembers[len(terms)], id)
	}
	for _, ids := range c.bucketedMembers {
		sortIDs(ids)
	}

	c.stopWords = deriveStopWords(c.bucketedFreq, opts)
	return c
}

// deriveStopWords collects the buckets above the threshold in ascending bucket
// order, then bucket 1. A missing bucket contributes nothing.
func deriveStopWords(buckets map[int][]string, opts CorpusOptions) []string {
	high := make([]int, 0)
	for count := range buckets {
		if count > opts.HighFrequencyThreshold {
			high = append(high, count)
		}
	}
	sort.Ints(high)

	out := make([]string, 0)
	for _, count := range high {
		out = append(out, buckets[count]...)
	}
	if opts.SingletonStopWords {
		out = append(out, buckets[1]...)
	}
	return out
}

// Dictionary builds the scoring dictionary from the canonicalized views.
func (c *Corpus) Dictionary() *Dictionary {
	return NewDictionary(c.frequency, c.members)
}

// FrequencyDistribution returns word -> canonical percepts. Words whose
// percepts were all dropped during canonicalization are absent.
func (c *Corpus) FrequencyDistribution() map[string][]PerceptID {
	out := make(map[string][]PerceptID, len(c.frequency))
	for w, ids := range c.frequency {
		out[w] = append([]PerceptID(nil), ids...)
	}
	return out
}

// BucketedFrequencyDistribution returns evidenced-percept count -> words.
func (c *Corpus) BucketedFrequencyDistribution() map[int][]string {
	out := make(map[int][]string, len(c.bucketedFreq))
	for n, words := range c.bucketedFreq {
		out[n] = append([]string(nil), words...)
	}
	return out
}

// StopWords returns the corpus-derived stop words.
func (c *Corpus) StopWords() []string {
	return append([]string(nil), c.stopWords...)
}

// MemberDistribution returns canonical percept -> member terms.
func (c *Corpus) MemberDistribution() map[PerceptID][]string {
	out := make(map[PerceptID][]string, len(c.members))
	for id, terms := range c.members {
		out[id] = append([]string(nil), terms...)
	}
	return out
}

// BucketedMemberDistribution returns member count -> canonical percepts.
func (c *Corpus) BucketedMemberDistribution() map[int][]PerceptID {
	out := make(map[int][]PerceptID, len(c.bucketedMembers))
	for n, ids := range c.bucketedMembers {
		out[n] = append([]PerceptID(nil), ids...)
	}
	return out
}

// MemberList returns the distinct raw percept ids of the membership records,
// canonicalized or not.
func (c *Corpus) MemberList() []string {
	return append([]string(nil), c.memberList...)
}

// NameTable returns raw id -> canonical id for every included row of the
// alternate-name table. Empty when no table was configured.
func (c *Corpus) NameTable() map[string]PerceptID {
	out := make(map[string]PerceptID, len(c.names))
	for raw, id := range c.names {
		out[raw] = id
	}
	return out
}

// Uncanonical returns how many raw percept references in the frequency
// records had no alternate-name entry and were dropped.
func (c *Corpus) Uncanonical() int { return c.uncanonical }
