// Package bbolt implements ports.PerceptStore using bbolt (embedded B+ tree).
// The "frequency" bucket maps each word to the raw percept ids it evidences and
// the "membership" bucket maps each raw percept id to its member terms. Values
// are msgpack-encoded. Import replaces both buckets in one transaction, so a
// crash mid-import leaves the previous corpus intact.
package bbolt

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/corey/percept/internal/ports"
)

// Bucket keys
var (
	bucketFrequency  = []byte("frequency")
	bucketMembership = []byte("membership")
	bucketMeta       = []byte("meta")
	keyImportedAt    = []byte("imported_at")
	keyFrequencyN    = []byte("frequency_count")
	keyMembershipN   = []byte("membership_count")
	keySchema        = []byte("schema")
)

// ErrNotImported is returned by the fetch methods when no corpus has been
// imported into the file yet.
var ErrNotImported = errors.New("percept store is empty (run 'percept import')")

// Store implements ports.PerceptStore backed by bbolt.
type Store struct {
	db   *bolt.DB
	path string
}

// Stats describes the imported corpus.
type Stats struct {
	Path            string    `json:"path"`
	Schema          int       `json:"schema"`
	ImportedAt      time.Time `json:"imported_at"`
	FrequencyCount  int       `json:"frequency_count"`
	MembershipCount int       `json:"membership_count"`
}

// NewStore opens (or creates) a bbolt database at the given path for reading
// and importing.
func NewStore(path string) (*Store, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("bbolt open: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// OpenReadOnly opens an existing database with a shared lock. Several readers
// may hold it at once; an import waits for all of them to close.
func OpenReadOnly(path string) (*Store, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second, ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("bbolt open: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Close closes the underlying bbolt database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Import validates the records and replaces the stored corpus with them.
// Duplicate words or percepts are merged. Nothing is written if any record is
// malformed.
func (s *Store) Import(ctx context.Context, freq []ports.FrequencyRecord, members []ports.MembershipRecord) (Stats, error) {
	if err := ports.ValidateFrequencyRecords(freq); err != nil {
		return Stats{}, fmt.Errorf("import frequency: %w", err)
	}
	if err := ports.ValidateMembershipRecords(members); err != nil {
		return Stats{}, fmt.Errorf("import membership: %w", err)
	}

	freqBlobs, err := encodeRecords(mergeFrequency(freq))
	if err != nil {
		return Stats{}, fmt.Errorf("encode frequency: %w", err)
	}
	memberBlobs, err := encodeRecords(mergeMembership(members))
	if err != nil {
		return Stats{}, fmt.Errorf("encode membership: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return Stats{}, err
	}

	now := time.Now().UTC().Truncate(time.Second)
	err = s.db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bucketFrequency, bucketMembership, bucketMeta} {
			if err := tx.DeleteBucket(name); err != nil && !errors.Is(err, bolt.ErrBucketNotFound) {
				return err
			}
		}
		if err := putAll(tx, bucketFrequency, freqBlobs); err != nil {
			return err
		}
		if err := putAll(tx, bucketMembership, memberBlobs); err != nil {
			return err
		}
		meta, err := tx.CreateBucket(bucketMeta)
		if err != nil {
			return err
		}
		for k, v := range map[string]string{
			string(keyImportedAt):  now.Format(time.RFC3339),
			string(keyFrequencyN):  strconv.Itoa(len(freqBlobs)),
			string(keyMembershipN): strconv.Itoa(len(memberBlobs)),
			string(keySchema):      strconv.Itoa(schemaVersion),
		} {
			if err := meta.Put([]byte(k), []byte(v)); err != nil {
				return err
			}
		}
		return ctx.Err()
	})
	if err != nil {
		return Stats{}, fmt.Errorf("bbolt import: %w", err)
	}

	return Stats{
		Path:            s.path,
		Schema:          schemaVersion,
		ImportedAt:      now,
		FrequencyCount:  len(freqBlobs),
		MembershipCount: len(memberBlobs),
	}, nil
}

func putAll(tx *bolt.Tx, name []byte, blobs map[string][]byte) error {
	b, err := tx.CreateBucket(name)
	if err != nil {
		return err
	}
	for k, v := range blobs {
		if err := b.Put([]byte(k), v); err != nil {
			return fmt.Errorf("put %q: %w", k, err)
		}
	}
	return nil
}

// FetchFrequencyRecords returns every word record in key order.
func (s *Store) FetchFrequencyRecords(ctx context.Context) ([]ports.FrequencyRecord, error) {
	raw, err := s.readBucket(ctx, bucketFrequency)
	if err != nil {
		return nil, err
	}
	recs := make([]ports.FrequencyRecord, 0, len(raw))
	for _, kv := range raw {
		terms, err := decodeTerms(kv.value)
		if err != nil {
			return nil, fmt.Errorf("decode frequency %q: %w", kv.key, err)
		}
		recs = append(recs, ports.FrequencyRecord{Word: kv.key, Percepts: terms})
	}
	if err := ports.ValidateFrequencyRecords(recs); err != nil {
		return nil, err
	}
	return recs, nil
}

// FetchMembershipRecords returns every percept record in key order.
func (s *Store) FetchMembershipRecords(ctx context.Context) ([]ports.MembershipRecord, error) {
	raw, err := s.readBucket(ctx, bucketMembership)
	if err != nil {
		return nil, err
	}
	recs := make([]ports.MembershipRecord, 0, len(raw))
	for _, kv := range raw {
		terms, err := decodeTerms(kv.value)
		if err != nil {
			return nil, fmt.Errorf("decode membership %q: %w", kv.key, err)
		}
		recs = append(recs, ports.MembershipRecord{Percept: kv.key, Data: terms})
	}
	if err := ports.ValidateMembershipRecords(recs); err != nil {
		return nil, err
	}
	return recs, nil
}

// Stats reports what the last import wrote.
func (s *Store) Stats() (Stats, error) {
	st := Stats{Path: s.path}
	err := s.db.View(func(tx *bolt.Tx) error {
		meta := tx.Bucket(bucketMeta)
		if meta == nil {
			return ErrNotImported
		}
		if v := meta.Get(keyImportedAt); v != nil {
			t, err := time.Parse(time.RFC3339, string(v))
			if err != nil {
				return fmt.Errorf("parse imported_at: %w", err)
			}
			st.ImportedAt = t
		}
		st.Schema = atoi(meta.Get(keySchema))
		st.FrequencyCount = atoi(meta.Get(keyFrequencyN))
		st.MembershipCount = atoi(meta.Get(keyMembershipN))
		return nil
	})
	return st, err
}

type keyValue struct {
	key   string
	value []byte
}

// readBucket copies a bucket out of a read transaction. bbolt slices are only
// valid while the transaction is open.
func (s *Store) readBucket(ctx context.Context, name []byte) ([]keyValue, error) {
	var out []keyValue
	err := s.db.View(func(tx *bolt.Tx) error {
		if tx.Bucket(bucketMeta) == nil {
			return ErrNotImported
		}
		b := tx.Bucket(name)
		if b == nil {
			return fmt.Errorf("missing bucket %q", name)
		}
		out = make([]keyValue, 0, b.Stats().KeyN)
		n := 0
		return b.ForEach(func(k, v []byte) error {
			n++
			if n%4096 == 0 {
				if err := ctx.Err(); err != nil {
					return err
				}
			}
			val := make([]byte, len(v))
			copy(val, v)
			out = append(out, keyValue{key: string(k), value: val})
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, ctx.Err()
}

func atoi(b []byte) int {
	n, _ := strconv.Atoi(string(b))
	return n
}
