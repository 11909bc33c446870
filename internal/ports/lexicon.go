package ports

// Tokenizer splits raw text into an ordered token sequence. Punctuation runs
// are tokens too; callers count them toward document length.
type Tokenizer interface {
	Tokenize(text string) []string
}

// StopWordSet answers membership for a stop-word list. Implementations may be
// a materialized set or a predicate over a built-in list.
type StopWordSet interface {
	Contains(word string) bool
}

// StopWordSource provides the general-language stop-word list.
// Returns an error for languages the source does not ship.
type StopWordSource interface {
	ForLanguage(lang string) (StopWordSet, error)
}

// Stemmer reduces a lowercase word to its stem for the given language.
// Unknown languages must return the word unchanged, never panic.
type Stemmer interface {
	Stem(word, lang string) string
}

// Lemmatizer maps a lowercase word to its dictionary lemma, or returns the
// word unchanged when no lemma is known.
type Lemmatizer interface {
	Lemmatize(word string) string
}
