package percept

import "sort"

// Scores are the two derived strengths of a percept.
type Scores struct {
	// Normalized is word_count / percept_length * 100.
	Normalized float64 `json:"normalized_percept_score"`
	// Density is Normalized / document_length * 100, where document_length
	// counts every raw token, punctuation and stop words included.
	Density float64 `json:"percept_density_score"`
}

// ScoredPercept is a percept's evidence with its scores and display name.
type ScoredPercept struct {
	Evidence
	Scores      Scores `json:"scores"`
	DisplayName string `json:"pretty_name"`
}

// Score computes the scores for one percept's evidence. A zero percept length
// is a data-integrity error and a zero document length is invalid input; in
// neither case is a division attempted.
func Score(ev *Evidence) (Scores, error) {
	if ev.PerceptLength <= 0 {
		return Scores{}, NewError(KindDataIntegrity, "score "+string(ev.ID), ErrZeroPerceptLength)
	}
	if ev.DocumentLength <= 0 {
		return Scores{}, NewError(KindInvalidInput, "score "+string(ev.ID), ErrEmptyDocument)
	}
	normalized := float64(ev.WordCount) / float64(ev.PerceptLength) * 100
	return Scores{
		Normalized: normalized,
		Density:    normalized / float64(ev.DocumentLength) * 100,
	}, nil
}

// Rank returns scored percepts sorted by density, highest first. Equal
// densities keep their first-encountered order. The input is not modified.
func Rank(scored []ScoredPercept) []ScoredPercept {
	out := make([]ScoredPercept, len(scored))
	copy(out, scored)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Scores.Density != out[j].Scores.Density {
			return out[i].Scores.Density > out[j].Scores.Density
		}
		return out[i].Seq < out[j].Seq
	})
	return out
}
