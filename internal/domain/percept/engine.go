package percept

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/corey/percept/internal/domain/lexicon"
	"github.com/corey/percept/internal/ports"
)

// PerceptSetAll is the only percept set Analyze supports.
const PerceptSetAll = "all_percepts"

// Status is the caller-facing outcome of an engine call.
type Status string

const (
	StatusOK             Status = "OK"
	StatusInvalidInput   Status = "INVALID_INPUT"
	StatusNotImplemented Status = "NOT_IMPLEMENTED"
	StatusUnavailable    Status = "UNAVAILABLE"
)

// StatusFor maps an error to a Status. nil maps to StatusOK.
func StatusFor(err error) Status {
	switch {
	case err == nil:
		return StatusOK
	case IsKind(err, KindInvalidInput):
		return StatusInvalidInput
	case IsKind(err, KindNotImplemented):
		return StatusNotImplemented
	default:
		return StatusUnavailable
	}
}

// Options configures Build.
type Options struct {
	// Language is passed to the stemmer. Defaults to "english".
	Language               string
	HighFrequencyThreshold int
	SingletonStopWords     bool

	// Tokenizer defaults to lexicon.WordPunct.
	Tokenizer ports.Tokenizer
	// StopWords is the general-language list. It is combined with the
	// corpus-derived list.
	StopWords ports.StopWordSet
	Stemmer   ports.Stemmer
	// Lemmatizer defaults to a rule-based lemmatizer validated against the
	// dictionary's own words.
	Lemmatizer ports.Lemmatizer
}

// DefaultOptions returns the production defaults.
func DefaultOptions() Options {
	return Options{
		Language:               "english",
		HighFrequencyThreshold: DefaultHighFrequencyThreshold,
		SingletonStopWords:     true,
	}
}

// BuildInput is everything fetched from the external collaborators.
type BuildInput struct {
	Frequency  []ports.FrequencyRecord
	Membership []ports.MembershipRecord
	// Names is the alternate-name table. nil means none is configured.
	Names map[string]ports.NameEntry
}

// Analysis is the result of one Analyze call.
type Analysis struct {
	Status         Status          `json:"status"`
	Message        string          `json:"message,omitempty"`
	Percepts       []ScoredPercept `json:"percept_set"`
	PerceptsFound  int             `json:"percepts_found"`
	DocumentLength int             `json:"document_length"`
	// Dropped counts percepts excluded for unknown or zero cardinality.
	Dropped int `json:"dropped,omitempty"`
}

// Diagnostics is an operator-facing snapshot of the engine.
type Diagnostics struct {
	Fingerprint    string `json:"fingerprint"`
	Words          int    `json:"words"`
	Percepts       int    `json:"percepts"`
	StopWords      int    `json:"stop_words"`
	Orphans        int    `json:"orphan_percepts"`
	Uncanonical    int    `json:"uncanonical_refs"`
	Requests       int64  `json:"requests"`
	DroppedPercept int64  `json:"dropped_percepts"`
}

// Engine is the immutable scoring context: dictionary, corpus views and
// normalizer. Only the diagnostic counters change after Build.
type Engine struct {
	corpus     *Corpus
	dict       *Dictionary
	normalizer *lexicon.Normalizer
	derived    lexicon.Set

	requests atomic.Int64
	dropped  atomic.Int64
}

// Build validates the records, canonicalizes them, derives the corpus views
// and stop words, and wires the normalizer. Malformed records are reported as
// KindDependencyUnavailable since the store returned unusable data.
func Build(in BuildInput, opts Options) (*Engine, error) {
	if err := ports.ValidateFrequencyRecords(in.Frequency); err != nil {
		return nil, NewError(KindDependencyUnavailable, "build", fmt.Errorf("frequency records: %w", err))
	}
	if err := ports.ValidateMembershipRecords(in.Membership); err != nil {
		return nil, NewError(KindDependencyUnavailable, "build", fmt.Errorf("membership records: %w", err))
	}
	if opts.Language == "" {
		opts.Language = "english"
	}

	corpus := NewCorpus(in.Frequency, in.Membership, in.Names, CorpusOptions{
		HighFrequencyThreshold: opts.HighFrequencyThreshold,
		SingletonStopWords:     opts.SingletonStopWords,
	})
	dict := corpus.Dictionary()
	derived := lexicon.NewSet(corpus.StopWords()...)

	lemmatizer := opts.Lemmatizer
	if lemmatizer == nil {
		lemmatizer = lexicon.NewLemmatizer(dict)
	}

	return &Engine{
		corpus: corpus,
		dict:   dict,
		normalizer: lexicon.NewNormalizer(lexicon.NormalizerConfig{
			Language:   opts.Language,
			Tokenizer:  opts.Tokenizer,
			StopWords:  lexicon.Union{opts.StopWords, derived},
			Stemmer:    opts.Stemmer,
			Lemmatizer: lemmatizer,
		}),
		derived: derived,
	}, nil
}

// Analyze scores doc against every percept in the dictionary.
func (e *Engine) Analyze(doc string) (*Analysis, error) {
	if strings.TrimSpace(doc) == "" {
		return nil, NewError(KindInvalidInput, "analyze", ErrEmptyDocument)
	}
	tokens := e.normalizer.Tokenize(doc)
	if len(tokens) == 0 {
		return nil, NewError(KindInvalidInput, "analyze", ErrEmptyDocument)
	}

	filtered := e.normalizer.Filter(tokens)
	results := make([]*ModeResult, 0, len(lexicon.Modes))
	for _, m := range lexicon.Modes {
		results = append(results, Collect(m, e.normalizer.Transform(filtered, m), e.dict))
	}

	evidence, dropped := Aggregate(results, e.dict, len(tokens))
	scored := make([]ScoredPercept, 0, len(evidence))
	for _, ev := range evidence {
		s, err := Score(ev)
		if err != nil {
			dropped++
			continue
		}
		scored = append(scored, ScoredPercept{
			Evidence:    *ev,
			Scores:      s,
			DisplayName: e.dict.DisplayName(ev.ID),
		})
	}
	ranked := Rank(scored)

	e.requests.Add(1)
	e.dropped.Add(int64(dropped))

	return &Analysis{
		Status:         StatusOK,
		Percepts:       ranked,
		PerceptsFound:  len(ranked),
		DocumentLength: len(tokens),
		Dropped:        dropped,
	}, nil
}

// AnalyzeSet analyzes doc against a named percept set. Sets other than
// PerceptSetAll are answered with StatusNotImplemented and no error.
func (e *Engine) AnalyzeSet(set, doc string) (*Analysis, error) {
	if set != PerceptSetAll {
		return &Analysis{Status: StatusNotImplemented, Message: MessageNotImplemented}, nil
	}
	return e.Analyze(doc)
}

// View normalizes doc in the named mode. An unrecognized mode name or an
// empty document is invalid input.
func (e *Engine) View(doc, mode string) ([]string, error) {
	m, err := lexicon.ParseMode(mode)
	if err != nil {
		return nil, NewError(KindInvalidInput, "view", err)
	}
	if strings.TrimSpace(doc) == "" {
		return nil, NewError(KindInvalidInput, "view", ErrEmptyDocument)
	}
	return e.normalizer.Normalize(doc, m), nil
}

// Dictionary returns the scoring dictionary.
func (e *Engine) Dictionary() *Dictionary { return e.dict }

// Corpus returns the derived corpus views.
func (e *Engine) Corpus() *Corpus { return e.corpus }

// IsStopWord reports whether word is in the corpus-derived stop-word list.
func (e *Engine) IsStopWord(word string) bool { return e.derived.Contains(word) }

// Diagnostics returns a snapshot of the engine counters.
func (e *Engine) Diagnostics() Diagnostics {
	return Diagnostics{
		Fingerprint:    e.dict.Fingerprint(),
		Words:          e.dict.WordCount(),
		Percepts:       len(e.dict.percepts),
		StopWords:      e.derived.Len(),
		Orphans:        len(e.dict.orphans),
		Uncanonical:    e.corpus.Uncanonical(),
		Requests:       e.requests.Load(),
		DroppedPercept: e.dropped.Load(),
	}
}
