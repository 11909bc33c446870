package lexicon

import (
	"errors"
	"fmt"
	"strings"

	"github.com/corey/percept/internal/ports"
)

// ErrUnknownMode is returned by ParseMode for an unrecognized mode name.
var ErrUnknownMode = errors.New("unknown normalization mode")

// Mode is one of the three normalized views of a document.
type Mode string

const (
	ModeSurface Mode = "surface"
	ModeStem    Mode = "stem"
	ModeLemma   Mode = "lemma"
)

// Modes lists the modes in aggregation order.
var Modes = []Mode{ModeSurface, ModeStem, ModeLemma}

// ParseMode maps a name to a Mode. "base", the unchanged word, is accepted
// for ModeSurface.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "surface", "base":
		return ModeSurface, nil
	case "stem":
		return ModeStem, nil
	case "lemma":
		return ModeLemma, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// Normalizer produces the surface, stem and lemma views of a document.
//
// Filtering is the same for every mode: lowercase, then drop anything in the
// general stop-word list or the corpus-derived list. Stem and lemma views
// apply their transform to the filtered words and drop transformed forms that
// are themselves stop words.
type Normalizer struct {
	lang       string
	tokenizer  ports.Tokenizer
	stopWords  ports.StopWordSet
	stemmer    ports.Stemmer
	lemmatizer ports.Lemmatizer
}

// NormalizerConfig wires a Normalizer. Nil Tokenizer defaults to WordPunct.
// Nil StopWords means nothing is filtered. Nil Stemmer or Lemmatizer leave
// words unchanged in that mode.
type NormalizerConfig struct {
	Language   string
	Tokenizer  ports.Tokenizer
	StopWords  ports.StopWordSet
	Stemmer    ports.Stemmer
	Lemmatizer ports.Lemmatizer
}

// NewNormalizer creates a Normalizer.
func NewNormalizer(cfg NormalizerConfig) *Normalizer {
	n := &Normalizer{
		lang:       cfg.Language,
		tokenizer:  cfg.Tokenizer,
		stopWords:  cfg.StopWords,
		stemmer:    cfg.Stemmer,
		lemmatizer: cfg.Lemmatizer,
	}
	if n.tokenizer == nil {
		n.tokenizer = WordPunct{}
	}
	if n.lang == "" {
		n.lang = "english"
	}
	return n
}

// Tokenize returns the raw tokens of doc. len(tokens) is the document length
// used for density scoring, punctuation included.
func (n *Normalizer) Tokenize(doc string) []string {
	return n.tokenizer.Tokenize(doc)
}

// Filter lowercases tokens and drops stop words. Order and duplicates are kept.
func (n *Normalizer) Filter(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		w := strings.ToLower(t)
		if n.isStopWord(w) {
			continue
		}
		out = append(out, w)
	}
	return out
}

// Transform maps filtered words into the given mode. Surface is the identity.
func (n *Normalizer) Transform(filtered []string, mode Mode) []string {
	if mode == ModeSurface {
		out := make([]string, len(filtered))
		copy(out, filtered)
		return out
	}
	out := make([]string, 0, len(filtered))
	for _, w := range filtered {
		t := n.transformWord(w, mode)
		if t == "" || n.isStopWord(t) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// Normalize tokenizes, filters and transforms doc in one step.
func (n *Normalizer) Normalize(doc string, mode Mode) []string {
	return n.Transform(n.Filter(n.Tokenize(doc)), mode)
}

// Views returns all three modes for a filtered word list, keyed by mode.
func (n *Normalizer) Views(filtered []string) map[Mode][]string {
	views := make(map[Mode][]string, len(Modes))
	for _, m := range Modes {
		views[m] = n.Transform(filtered, m)
	}
	return views
}

func (n *Normalizer) transformWord(w string, mode Mode) string {
	switch mode {
	case ModeStem:
		if n.stemmer == nil {
			return w
		}
		return n.stemmer.Stem(w, n.lang)
	case ModeLemma:
		if n.lemmatizer == nil {
			return w
		}
		return n.lemmatizer.Lemmatize(w)
	}
	return w
}

func (n *Normalizer) isStopWord(w string) bool {
	return n.stopWords != nil && n.stopWords.Contains(w)
}
