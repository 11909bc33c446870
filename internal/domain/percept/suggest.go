package percept

import (
	"sort"
	"strings"

	"github.com/hbollon/go-edlib"
)

// DefaultSuggestLimit bounds Suggest when the caller passes no limit.
const DefaultSuggestLimit = 10

// Suggestion is a percept whose id resembles a query.
type Suggestion struct {
	ID          PerceptID `json:"name"`
	DisplayName string    `json:"pretty_name"`
	Similarity  float32   `json:"similarity"`
}

// Suggest ranks percept ids by Jaro-Winkler similarity to query, most similar
// first, ties by id. Used to help callers find the canonical name of a percept.
func (e *Engine) Suggest(query string, limit int) []Suggestion {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}
	if limit <= 0 {
		limit = DefaultSuggestLimit
	}

	out := make([]Suggestion, 0, len(e.dict.percepts))
	for _, id := range e.dict.percepts {
		sim, err := edlib.StringsSimilarity(q, strings.ToLower(string(id)), edlib.JaroWinkler)
		if err != nil || sim <= 0 {
			continue
		}
		out = append(out, Suggestion{ID: id, DisplayName: e.dict.DisplayName(id), Similarity: sim})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Similarity != out[j].Similarity {
			return out[i].Similarity > out[j].Similarity
		}
		return out[i].ID < out[j].ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
