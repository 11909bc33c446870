package percept

import "github.com/corey/percept/internal/domain/lexicon"

// ModeResult is the evidence one normalization mode found in a document.
type ModeResult struct {
	Mode lexicon.Mode
	// Order lists percepts in the order the mode first encountered them.
	Order []PerceptID
	// Evidence holds each percept's distinct words, in document order.
	Evidence map[PerceptID][]string
}

// Collect looks each normalized word up in the dictionary and records it as
// evidence for every percept it maps to. Unknown words contribute nothing and
// repeated words are recorded once.
func Collect(mode lexicon.Mode, words []string, dict *Dictionary) *ModeResult {
	r := &ModeResult{Mode: mode, Evidence: make(map[PerceptID][]string)}
	seen := make(map[PerceptID]map[string]bool)

	for _, w := range words {
		for _, id := range dict.Lookup(w) {
			got, ok := seen[id]
			if !ok {
				got = make(map[string]bool)
				seen[id] = got
				r.Order = append(r.Order, id)
			}
			if got[w] {
				continue
			}
			got[w] = true
			r.Evidence[id] = append(r.Evidence[id], w)
		}
	}
	return r
}

// ModeEvidence is the per-mode breakdown kept for transparency. It is not
// used in scoring.
type ModeEvidence struct {
	Words     []string `json:"words"`
	WordCount int      `json:"word_count"`
}

// Evidence is the combined evidence for one percept across all modes.
type Evidence struct {
	ID             PerceptID                     `json:"name"`
	WordsFound     []string                      `json:"words_found"`
	WordCount      int                           `json:"word_count"`
	PerceptLength  int                           `json:"percept_length"`
	DocumentLength int                           `json:"document_length"`
	Modes          map[lexicon.Mode]ModeEvidence `json:"percept_metadata"`

	// Seq is the first-encountered position across modes. Ranking ties
	// are broken on it.
	Seq int `json:"-"`
}

// Aggregate merges mode results, in the order given, into one Evidence per
// percept. WordsFound is the union of the per-mode sets, so a word found by
// both stem and lemma counts once. Percepts with unknown or zero cardinality
// are excluded and counted in dropped, once per distinct percept.
func Aggregate(results []*ModeResult, dict *Dictionary, documentLength int) (evidence []*Evidence, dropped int) {
	byID := make(map[PerceptID]*Evidence)
	words := make(map[PerceptID]map[string]bool)
	rejected := make(map[PerceptID]bool)

	for _, r := range results {
		if r == nil {
			continue
		}
		for _, id := range r.Order {
			found := r.Evidence[id]
			if len(found) == 0 {
				continue
			}
			length := dict.PerceptLength(id)
			if length <= 0 {
				if !rejected[id] {
					rejected[id] = true
					dropped++
				}
				continue
			}

			ev, ok := byID[id]
			if !ok {
				ev = &Evidence{
					ID:             id,
					PerceptLength:  length,
					DocumentLength: documentLength,
					Modes:          make(map[lexicon.Mode]ModeEvidence),
					Seq:            len(evidence),
				}
				byID[id] = ev
				words[id] = make(map[string]bool)
				evidence = append(evidence, ev)
			}

			ev.Modes[r.Mode] = ModeEvidence{
				Words:     append([]string(nil), found...),
				WordCount: len(found),
			}
			for _, w := range found {
				if words[id][w] {
					continue
				}
				words[id][w] = true
				ev.WordsFound = append(ev.WordsFound, w)
			}
			ev.WordCount = len(ev.WordsFound)
		}
	}
	return evidence, dropped
}
