// Package ports defines the interfaces (contracts) that adapters must implement.
// These are the boundaries of the hexagonal architecture. Domain logic depends
// only on these interfaces, never on concrete implementations.
package ports

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedRecord is returned by the record validators when a record pulled
// from a store cannot be used to build the percept dictionary.
var ErrMalformedRecord = errors.New("malformed record")

// PerceptStore is the read side of the percept corpus. The backing store holds,
// per distinct word, the set of percepts it evidences, and per percept, the
// authoritative set of member terms.
//
// Both fetches are called once per dictionary build. Implementations must
// validate every record (see FrequencyRecord.Validate) and reject the whole
// fetch on the first malformed record rather than return partial data.
type PerceptStore interface {
	// FetchFrequencyRecords returns every word -> percepts record.
	FetchFrequencyRecords(ctx context.Context) ([]FrequencyRecord, error)

	// FetchMembershipRecords returns every percept -> member terms record.
	FetchMembershipRecords(ctx context.Context) ([]MembershipRecord, error)

	// Close releases the underlying connection or file handle.
	Close() error
}

// AlternateNameTable loads the raw-id -> canonical name mapping used to
// canonicalize percept identifiers. Only included rows are returned.
type AlternateNameTable interface {
	Load(ctx context.Context) (map[string]NameEntry, error)
}

// FrequencyRecord is one row of the frequency table: a word and the raw
// percept identifiers it evidences.
type FrequencyRecord struct {
	Word     string   `json:"word" msgpack:"word" bson:"word"`
	Percepts []string `json:"percepts" msgpack:"percepts" bson:"percepts"`
}

// Validate rejects records that would fault deep in aggregation.
func (r FrequencyRecord) Validate() error {
	if strings.TrimSpace(r.Word) == "" {
		return fmt.Errorf("%w: frequency record has empty word", ErrMalformedRecord)
	}
	for i, p := range r.Percepts {
		if strings.TrimSpace(p) == "" {
			return fmt.Errorf("%w: frequency record %q has empty percept at %d", ErrMalformedRecord, r.Word, i)
		}
	}
	return nil
}

// MembershipRecord is one row of the membership table: a raw percept
// identifier and its defining member terms.
type MembershipRecord struct {
	Percept string   `json:"percept" msgpack:"percept" bson:"percept"`
	Data    []string `json:"data" msgpack:"data" bson:"data"`
}

// Validate rejects records with no identifier. An empty Data list is allowed
// here; the dictionary treats it as a zero-cardinality percept and excludes it.
func (r MembershipRecord) Validate() error {
	if strings.TrimSpace(r.Percept) == "" {
		return fmt.Errorf("%w: membership record has empty percept", ErrMalformedRecord)
	}
	return nil
}

// NameEntry is the canonical form of a raw percept identifier. The display
// name is derived from CanonicalID by the dictionary.
type NameEntry struct {
	CanonicalID string `json:"canonical_id"`
}

// ValidateFrequencyRecords validates a whole fetch, stopping at the first bad record.
func ValidateFrequencyRecords(recs []FrequencyRecord) error {
	for i, r := range recs {
		if err := r.Validate(); err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
	}
	return nil
}

// ValidateMembershipRecords validates a whole fetch, stopping at the first bad record.
func ValidateMembershipRecords(recs []MembershipRecord) error {
	for i, r := range recs {
		if err := r.Validate(); err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
	}
	return nil
}
