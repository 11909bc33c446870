// Value encoding for corpus records.
//
// Each bucket value is a msgpack array of strings: the raw percept ids for a
// frequency entry, the member terms for a membership entry. Lists are sorted
// and deduplicated before encoding so identical corpora produce identical
// files.
package bbolt

import (
	"fmt"
	"sort"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/corey/percept/internal/ports"
)

// schemaVersion is written to the meta bucket on every import.
const schemaVersion = 1

func encodeTerms(terms []string) ([]byte, error) {
	return msgpack.Marshal(terms)
}

func decodeTerms(data []byte) ([]string, error) {
	var terms []string
	if err := msgpack.Unmarshal(data, &terms); err != nil {
		return nil, fmt.Errorf("msgpack: %w", err)
	}
	return terms, nil
}

func encodeRecords(records map[string][]string) (map[string][]byte, error) {
	out := make(map[string][]byte, len(records))
	for k, terms := range records {
		blob, err := encodeTerms(terms)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", k, err)
		}
		out[k] = blob
	}
	return out, nil
}

// mergeFrequency folds duplicate words into one sorted percept list.
func mergeFrequency(recs []ports.FrequencyRecord) map[string][]string {
	out := make(map[string][]string, len(recs))
	for _, r := range recs {
		out[r.Word] = union(out[r.Word], r.Percepts)
	}
	return out
}

// mergeMembership folds duplicate percepts into one sorted member list.
func mergeMembership(recs []ports.MembershipRecord) map[string][]string {
	out := make(map[string][]string, len(recs))
	for _, r := range recs {
		out[r.Percept] = union(out[r.Percept], r.Data)
	}
	return out
}

func union(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, list := range [][]string{a, b} {
		for _, s := range list {
			if _, ok := seen[s]; ok {
				continue
			}
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}
