package lexicon

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Tokenizer: word/punctuation runs, NFC normalization
// =============================================================================

func TestWordPunct_SplitsWordsAndPunctuation(t *testing.T) {
	got := WordPunct{}.Tokenize("The fire and flame were seen.")
	assert.Equal(t, []string{"The", "fire", "and", "flame", "were", "seen", "."}, got)
}

func TestWordPunct_PunctuationRunsStayTogether(t *testing.T) {
	got := WordPunct{}.Tokenize("Hello, world!! It's done...")
	assert.Equal(t, []string{"Hello", ",", "world", "!!", "It", "'", "s", "done", "..."}, got)
}

func TestWordPunct_EmptyAndWhitespace(t *testing.T) {
	assert.Nil(t, WordPunct{}.Tokenize(""))
	assert.Nil(t, WordPunct{}.Tokenize("  \t\n "))
}

func TestWordPunct_ComposedAndDecomposedMatch(t *testing.T) {
	composed := WordPunct{}.Tokenize("caf\u00e9")
	decomposed := WordPunct{}.Tokenize("cafe\u0301")
	assert.Equal(t, composed, decomposed)
	assert.Len(t, decomposed, 1)
}

func TestWordPunct_CombiningMarksStayInWord(t *testing.T) {
	// Devanagari vowel signs and virama have no precomposed form.
	got := WordPunct{}.Tokenize("हिन्दी text")
	assert.Equal(t, []string{"हिन्दी", "text"}, got)
}

// =============================================================================
// Stop-word sets
// =============================================================================

func TestSet_Basics(t *testing.T) {
	s := NewSet("the", "and", "the")
	assert.Equal(t, 2, s.Len())
	assert.True(t, s.Contains("the"))
	assert.False(t, s.Contains("fire"))
	assert.Equal(t, []string{"and", "the"}, s.Sorted())

	var empty Set
	assert.False(t, empty.Contains("the"))
}

func TestUnion_SkipsNilMembers(t *testing.T) {
	u := Union{nil, NewSet("the"), NewSet("zeal")}
	assert.True(t, u.Contains("the"))
	assert.True(t, u.Contains("zeal"))
	assert.False(t, u.Contains("fire"))
	assert.False(t, Union{}.Contains("the"))
}

// =============================================================================
// Lemmatizer
// =============================================================================

func TestLemmatizer_WithVocabulary(t *testing.T) {
	l := NewLemmatizer(NewSet("fire", "flame", "box", "church", "wolf", "city"))

	assert.Equal(t, "fire", l.Lemmatize("fires"))
	assert.Equal(t, "flame", l.Lemmatize("flames"))
	assert.Equal(t, "box", l.Lemmatize("boxes"))
	assert.Equal(t, "church", l.Lemmatize("churches"))
	assert.Equal(t, "wolf", l.Lemmatize("wolves"))
	assert.Equal(t, "city", l.Lemmatize("cities"))
	assert.Equal(t, "fire", l.Lemmatize("fire"), "a known lemma maps to itself")
	assert.Equal(t, "seen", l.Lemmatize("seen"), "no known candidate leaves the word alone")
}

func TestLemmatizer_WithoutVocabulary(t *testing.T) {
	l := NewLemmatizer(nil)

	assert.Equal(t, "flame", l.Lemmatize("flames"))
	assert.Equal(t, "class", l.Lemmatize("classes"))
	assert.Equal(t, "glass", l.Lemmatize("glass"))
	assert.Equal(t, "bus", l.Lemmatize("bus"))
	assert.Equal(t, "child", l.Lemmatize("children"))
	assert.Equal(t, "", l.Lemmatize(""))
}

// =============================================================================
// Mode parsing
// =============================================================================

func TestParseMode(t *testing.T) {
	for in, want := range map[string]Mode{
		"surface": ModeSurface,
		"STEM":    ModeStem,
		"lemma":   ModeLemma,
		" base ":  ModeSurface,
	} {
		got, err := ParseMode(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseMode("soundex")
	assert.ErrorIs(t, err, ErrUnknownMode)
}

// =============================================================================
// Normalizer
// =============================================================================

// suffixStemmer strips a trailing "s" so tests don't depend on a real stemmer.
type suffixStemmer struct{}

func (suffixStemmer) Stem(word, _ string) string { return strings.TrimSuffix(word, "s") }

// mapLemmatizer returns fixed lemmas.
type mapLemmatizer map[string]string

func (m mapLemmatizer) Lemmatize(word string) string {
	if l, ok := m[word]; ok {
		return l
	}
	return word
}

func TestNormalizer_FilterLowercasesAndDropsStopWords(t *testing.T) {
	n := NewNormalizer(NormalizerConfig{StopWords: Union{NewSet("the", "and", "were", "."), NewSet("seen")}})

	tokens := n.Tokenize("The Fire and flame were seen.")
	assert.Len(t, tokens, 7)
	assert.Equal(t, []string{"fire", "flame"}, n.Filter(tokens))
}

func TestNormalizer_FilterKeepsDuplicatesInOrder(t *testing.T) {
	n := NewNormalizer(NormalizerConfig{})
	assert.Equal(t, []string{"fire", "flame", "fire"}, n.Filter([]string{"Fire", "flame", "FIRE"}))
}

func TestNormalizer_TransformModes(t *testing.T) {
	n := NewNormalizer(NormalizerConfig{
		StopWords:  NewSet("thi"),
		Stemmer:    suffixStemmer{},
		Lemmatizer: mapLemmatizer{"geese": "goose"},
	})
	filtered := []string{"flames", "geese", "this"}

	assert.Equal(t, filtered, n.Transform(filtered, ModeSurface))
	assert.Equal(t, []string{"flame", "geese"}, n.Transform(filtered, ModeStem), "a stem that is a stop word is dropped")
	assert.Equal(t, []string{"flames", "goose", "this"}, n.Transform(filtered, ModeLemma))
}

func TestNormalizer_NilTransformsAreIdentity(t *testing.T) {
	n := NewNormalizer(NormalizerConfig{})
	views := n.Views([]string{"fires"})
	for _, m := range Modes {
		assert.Equal(t, []string{"fires"}, views[m], string(m))
	}
}

func TestNormalizer_Deterministic(t *testing.T) {
	n := NewNormalizer(NormalizerConfig{Stemmer: suffixStemmer{}, StopWords: NewSet("the")})
	doc := "The flames, the fires and the embers."
	first := n.Normalize(doc, ModeStem)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, n.Normalize(doc, ModeStem))
	}
}
