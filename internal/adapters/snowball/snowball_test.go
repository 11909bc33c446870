package snowball

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStemmer_English(t *testing.T) {
	s := Stemmer{}
	assert.Equal(t, "flame", s.Stem("flames", "english"))
	assert.Equal(t, "run", s.Stem("running", "english"))
	assert.Equal(t, "fire", s.Stem("fire", "English"))
}

func TestStemmer_UnknownLanguageIsIdentity(t *testing.T) {
	assert.Equal(t, "flames", Stemmer{}.Stem("flames", "klingon"))
	assert.Equal(t, "", Stemmer{}.Stem("", "english"))
}

func TestStopWords_English(t *testing.T) {
	set, err := StopWords{}.ForLanguage("english")
	require.NoError(t, err)
	for _, w := range []string{"the", "and", "were"} {
		assert.True(t, set.Contains(w), w)
	}
	assert.False(t, set.Contains("fire"))
	assert.False(t, set.Contains("."))
}

func TestStopWords_EveryListedLanguageLoads(t *testing.T) {
	for _, lang := range Languages() {
		_, err := StopWords{}.ForLanguage(lang)
		assert.NoError(t, err, lang)
	}
}

func TestStopWords_UnknownLanguage(t *testing.T) {
	_, err := StopWords{}.ForLanguage("klingon")
	assert.Error(t, err)
}
