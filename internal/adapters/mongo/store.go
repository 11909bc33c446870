// Package mongo implements ports.PerceptStore over a MongoDB corpus database:
// one collection of
// {word, percepts} documents and one of {percept, data} documents.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/corey/percept/internal/ports"
)

// Config locates the corpus collections.
type Config struct {
	URI                  string
	Database             string
	FrequencyCollection  string
	MembershipCollection string
	// Timeout bounds connect, ping and each fetch.
	Timeout time.Duration
}

// Defaults used when a Config field is empty.
const (
	DefaultDatabase             = "percept-corpus"
	DefaultFrequencyCollection  = "frequency_distribution"
	DefaultMembershipCollection = "membership_distribution"
	DefaultTimeout              = 10 * time.Second
)

func (c *Config) applyDefaults() {
	if c.Database == "" {
		c.Database = DefaultDatabase
	}
	if c.FrequencyCollection == "" {
		c.FrequencyCollection = DefaultFrequencyCollection
	}
	if c.MembershipCollection == "" {
		c.MembershipCollection = DefaultMembershipCollection
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
}

// Store implements ports.PerceptStore backed by MongoDB.
type Store struct {
	client *mongo.Client
	cfg    Config
}

// Open connects to MongoDB and pings the server so an unreachable store fails
// at startup rather than on the first fetch.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.URI == "" {
		return nil, errors.New("mongo: empty URI")
	}
	cfg.applyDefaults()

	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return &Store{client: client, cfg: cfg}, nil
}

// Close disconnects the client.
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Timeout)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// frequencyDoc is the stored shape of a frequency record.
type frequencyDoc struct {
	Word     string   `bson:"word"`
	Percepts []string `bson:"percepts"`
}

// membershipDoc is the stored shape of a membership record.
type membershipDoc struct {
	Percept string   `bson:"percept"`
	Data    []string `bson:"data"`
}

// FetchFrequencyRecords reads the whole frequency collection.
func (s *Store) FetchFrequencyRecords(ctx context.Context) ([]ports.FrequencyRecord, error) {
	var docs []frequencyDoc
	if err := s.findAll(ctx, s.cfg.FrequencyCollection, &docs); err != nil {
		return nil, err
	}
	return frequencyRecords(docs)
}

// FetchMembershipRecords reads the whole membership collection.
func (s *Store) FetchMembershipRecords(ctx context.Context) ([]ports.MembershipRecord, error) {
	var docs []membershipDoc
	if err := s.findAll(ctx, s.cfg.MembershipCollection, &docs); err != nil {
		return nil, err
	}
	return membershipRecords(docs)
}

func (s *Store) findAll(ctx context.Context, collection string, out any) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	coll := s.client.Database(s.cfg.Database).Collection(collection)
	cur, err := coll.Find(ctx, bson.D{})
	if err != nil {
		return fmt.Errorf("mongo find %s: %w", collection, err)
	}
	if err := cur.All(ctx, out); err != nil {
		return fmt.Errorf("mongo decode %s: %w", collection, err)
	}
	return nil
}

func frequencyRecords(docs []frequencyDoc) ([]ports.FrequencyRecord, error) {
	recs := make([]ports.FrequencyRecord, len(docs))
	for i, d := range docs {
		recs[i] = ports.FrequencyRecord{Word: d.Word, Percepts: d.Percepts}
	}
	if err := ports.ValidateFrequencyRecords(recs); err != nil {
		return nil, err
	}
	return recs, nil
}

func membershipRecords(docs []membershipDoc) ([]ports.MembershipRecord, error) {
	recs := make([]ports.MembershipRecord, len(docs))
	for i, d := range docs {
		recs[i] = ports.MembershipRecord{Percept: d.Percept, Data: d.Data}
	}
	if err := ports.ValidateMembershipRecords(recs); err != nil {
		return nil, err
	}
	return recs, nil
}
