package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/corey/percept/internal/adapters/altnames"
	"github.com/corey/percept/internal/adapters/bbolt"
	"github.com/corey/percept/internal/adapters/golem"
	"github.com/corey/percept/internal/adapters/mongo"
	"github.com/corey/percept/internal/adapters/snowball"
	"github.com/corey/percept/internal/config"
	"github.com/corey/percept/internal/domain/lexicon"
	"github.com/corey/percept/internal/domain/percept"
	"github.com/corey/percept/internal/ports"
)

// identityLemmatizer backs [analysis].lemmatize = "off".
type identityLemmatizer struct{}

func (identityLemmatizer) Lemmatize(word string) string { return word }

// OpenStore opens the configured percept store for one dictionary build.
// The bolt store is opened read-only so an import can run once the build
// has closed it.
func OpenStore(ctx context.Context, cfg *config.Config, paths *Paths) (ports.PerceptStore, error) {
	switch cfg.Store.Driver {
	case config.DriverMongo:
		return mongo.Open(ctx, mongo.Config{
			URI:                  cfg.Store.MongoURI,
			Database:             cfg.Store.MongoDatabase,
			FrequencyCollection:  cfg.Store.FrequencyCollection,
			MembershipCollection: cfg.Store.MembershipCollection,
			Timeout:              cfg.StoreTimeout(),
		})
	case config.DriverBolt:
		return bbolt.OpenReadOnly(paths.Bolt)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// LoadInput fetches both record sets and the alternate-name table in
// parallel. Every failure is a dependency failure.
func LoadInput(ctx context.Context, cfg *config.Config, paths *Paths) (percept.BuildInput, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.StoreTimeout())
	defer cancel()

	store, err := OpenStore(ctx, cfg, paths)
	if err != nil {
		return percept.BuildInput{}, percept.NewError(percept.KindDependencyUnavailable, "open store", err)
	}
	defer store.Close()

	var in percept.BuildInput
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		recs, err := store.FetchFrequencyRecords(gctx)
		if err != nil {
			return fmt.Errorf("fetch frequency records: %w", err)
		}
		in.Frequency = recs
		return nil
	})
	g.Go(func() error {
		recs, err := store.FetchMembershipRecords(gctx)
		if err != nil {
			return fmt.Errorf("fetch membership records: %w", err)
		}
		in.Membership = recs
		return nil
	})
	if paths.Names != "" {
		var table ports.AlternateNameTable = altnames.New(paths.Names)
		g.Go(func() error {
			names, err := table.Load(gctx)
			if err != nil {
				return fmt.Errorf("load alternate names: %w", err)
			}
			in.Names = names
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return percept.BuildInput{}, percept.NewError(percept.KindDependencyUnavailable, "load", err)
	}
	return in, nil
}

// EngineOptions translates the [analysis] section into engine options.
func EngineOptions(cfg *config.Config) (percept.Options, error) {
	general, err := snowball.StopWords{}.ForLanguage(cfg.Analysis.Language)
	if err != nil {
		return percept.Options{}, err
	}

	opts := percept.DefaultOptions()
	opts.Language = cfg.Analysis.Language
	opts.HighFrequencyThreshold = cfg.Analysis.HighFrequencyThreshold
	opts.SingletonStopWords = cfg.Analysis.SingletonStopWords
	opts.StopWords = lexicon.Union{general, cfg.StopWords()}
	opts.Stemmer = snowball.Stemmer{}
	switch cfg.Analysis.Lemmatize {
	case config.LemmatizeOff:
		opts.Lemmatizer = identityLemmatizer{}
	case config.LemmatizeRules:
		// nil selects the engine's rule lemmatizer over the dictionary's words.
	default:
		lem, err := golem.New()
		if err != nil {
			return percept.Options{}, err
		}
		opts.Lemmatizer = lem
	}
	return opts, nil
}

// NewEngine loads the corpus and builds an engine. The CLI uses it directly
// when no daemon is running.
func NewEngine(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*percept.Engine, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	start := time.Now()

	opts, err := EngineOptions(cfg)
	if err != nil {
		return nil, err
	}
	in, err := LoadInput(ctx, cfg, NewPaths(cfg))
	if err != nil {
		return nil, err
	}
	engine, err := percept.Build(in, opts)
	if err != nil {
		return nil, err
	}

	d := engine.Diagnostics()
	logger.Info("engine built",
		zap.String("store", cfg.Store.Driver),
		zap.Int("frequency_records", len(in.Frequency)),
		zap.Int("membership_records", len(in.Membership)),
		zap.Int("names", len(in.Names)),
		zap.Int("words", d.Words),
		zap.Int("percepts", d.Percepts),
		zap.Int("stop_words", d.StopWords),
		zap.Int("orphan_percepts", d.Orphans),
		zap.Int("uncanonical_refs", d.Uncanonical),
		zap.String("fingerprint", d.Fingerprint),
		zap.Duration("elapsed", time.Since(start)))
	return engine, nil
}
