package lexicon

import "strings"

// Vocabulary is the set of forms a lemma candidate must belong to. The percept
// dictionary satisfies it, so lemmas are only produced for forms the
// dictionary can actually look up.
type Vocabulary interface {
	Contains(word string) bool
}

// detachment is a suffix rewrite applied to nouns: "ches" -> "ch".
type detachment struct {
	suffix      string
	replacement string
}

// nounDetachments is the WordNet noun detachment table.
var nounDetachments = []detachment{
	{"s", ""},
	{"ses", "s"},
	{"ves", "f"},
	{"xes", "x"},
	{"zes", "z"},
	{"ches", "ch"},
	{"shes", "sh"},
	{"men", "man"},
	{"ies", "y"},
}

// nounExceptions are irregular plurals the detachment rules cannot reach.
var nounExceptions = map[string]string{
	"analyses":  "analysis",
	"children":  "child",
	"crises":    "crisis",
	"criteria":  "criterion",
	"dice":      "die",
	"feet":      "foot",
	"geese":     "goose",
	"halves":    "half",
	"knives":    "knife",
	"leaves":    "leaf",
	"lice":      "louse",
	"lives":     "life",
	"mice":      "mouse",
	"oxen":      "ox",
	"people":    "person",
	"phenomena": "phenomenon",
	"teeth":     "tooth",
	"theses":    "thesis",
	"wives":     "wife",
	"wolves":    "wolf",
}

// Lemmatizer is a rule-based noun lemmatizer. It implements ports.Lemmatizer.
//
// Candidates are the word itself plus every detachment (or the exception
// entry). With a vocabulary, only candidates present in it survive; the
// shortest survivor wins, ties broken lexically. With no surviving candidate
// the word is returned unchanged.
type Lemmatizer struct {
	vocab Vocabulary
}

// NewLemmatizer creates a lemmatizer. vocab may be nil, in which case every
// candidate is accepted and a few guards keep "glass" or "bus" intact.
func NewLemmatizer(vocab Vocabulary) *Lemmatizer {
	return &Lemmatizer{vocab: vocab}
}

// Lemmatize returns the lemma of a lowercase word.
func (l *Lemmatizer) Lemmatize(word string) string {
	if word == "" {
		return word
	}

	candidates := []string{word}
	if exc, ok := nounExceptions[word]; ok {
		candidates = append(candidates, exc)
	} else {
		for _, d := range nounDetachments {
			if len(word) <= len(d.suffix) || !strings.HasSuffix(word, d.suffix) {
				continue
			}
			if l.vocab == nil && !plausibleDetachment(word, d) {
				continue
			}
			candidates = append(candidates, word[:len(word)-len(d.suffix)]+d.replacement)
		}
	}

	best := ""
	for _, c := range candidates {
		if l.vocab != nil && !l.vocab.Contains(c) {
			continue
		}
		if best == "" || len(c) < len(best) || (len(c) == len(best) && c < best) {
			best = c
		}
	}
	if best == "" {
		return word
	}
	return best
}

// plausibleDetachment guards the bare "s" rule when there is no vocabulary to
// validate against.
func plausibleDetachment(word string, d detachment) bool {
	if d.suffix != "s" {
		return true
	}
	if len(word) <= 3 {
		return false
	}
	for _, tail := range []string{"ss", "us", "is"} {
		if strings.HasSuffix(word, tail) {
			return false
		}
	}
	return true
}
