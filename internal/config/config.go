// Package config loads the percept daemon configuration from a TOML file.
//
// A missing file is not an error: every field has a default, and the
// daemon runs against a bolt store next to the working directory.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap/zapcore"

	"github.com/corey/percept/internal/domain/lexicon"
)

// DefaultPath is used when no --config flag is given.
const DefaultPath = "percept.toml"

// Store drivers.
const (
	DriverBolt  = "bolt"
	DriverMongo = "mongo"
)

// Lemmatizers.
const (
	LemmatizeDictionary = "dictionary"
	LemmatizeRules      = "rules"
	LemmatizeOff        = "off"
)

// Log formats.
const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

// Config is the full daemon configuration.
type Config struct {
	Server   Server   `toml:"server"`
	Store    Store    `toml:"store"`
	Names    Names    `toml:"names"`
	Analysis Analysis `toml:"analysis"`
	Log      Log      `toml:"log"`

	// Path is the file the config was loaded from, or would have been.
	Path string `toml:"-"`
}

// Server configures the outer surfaces.
type Server struct {
	// HTTPAddr is the API listen address. Empty derives a port from the
	// config path.
	HTTPAddr string `toml:"http_addr"`
	// DisableHTTP serves only the Unix socket.
	DisableHTTP bool `toml:"disable_http"`
	// SocketPath overrides the derived socket path.
	SocketPath string `toml:"socket_path"`
}

// Store configures where percept records come from.
type Store struct {
	Driver               string `toml:"driver"`
	BoltPath             string `toml:"bolt_path"`
	MongoURI             string `toml:"mongo_uri"`
	MongoDatabase        string `toml:"mongo_database"`
	FrequencyCollection  string `toml:"frequency_collection"`
	MembershipCollection string `toml:"membership_collection"`
	// Timeout bounds one dictionary fetch, as a Go duration string.
	Timeout string `toml:"timeout"`
}

// Names configures the alternate-name table.
type Names struct {
	// Path is the CSV file. Empty means every raw id is its own canonical id.
	Path string `toml:"path"`
	// Watch rebuilds the engine when the table or the bolt file changes.
	Watch bool `toml:"watch"`
}

// Analysis configures normalization and stop-word derivation.
type Analysis struct {
	Language               string   `toml:"language"`
	PerceptSet             string   `toml:"percept_set"`
	HighFrequencyThreshold int      `toml:"high_frequency_threshold"`
	SingletonStopWords     bool     `toml:"singleton_stop_words"`
	ExtraStopWords         []string `toml:"extra_stop_words"`
	// Lemmatize is LemmatizeDictionary, LemmatizeRules or LemmatizeOff.
	Lemmatize string `toml:"lemmatize"`
}

// Log configures the zap logger.
type Log struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	cfg := &Config{Path: DefaultPath}
	cfg.Analysis.SingletonStopWords = true
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills every empty field. Booleans are left alone; Load
// decides those from whether the key was present.
func (c *Config) ApplyDefaults() {
	if c.Store.Driver == "" {
		c.Store.Driver = DriverBolt
	}
	if c.Store.BoltPath == "" {
		c.Store.BoltPath = "percept.db"
	}
	if c.Store.MongoDatabase == "" {
		c.Store.MongoDatabase = "percept-corpus"
	}
	if c.Store.FrequencyCollection == "" {
		c.Store.FrequencyCollection = "frequency_distribution"
	}
	if c.Store.MembershipCollection == "" {
		c.Store.MembershipCollection = "membership_distribution"
	}
	if c.Store.Timeout == "" {
		c.Store.Timeout = "30s"
	}
	if c.Analysis.Language == "" {
		c.Analysis.Language = "english"
	}
	if c.Analysis.PerceptSet == "" {
		c.Analysis.PerceptSet = "all_percepts"
	}
	if c.Analysis.HighFrequencyThreshold == 0 {
		c.Analysis.HighFrequencyThreshold = 300
	}
	if c.Analysis.Lemmatize == "" {
		c.Analysis.Lemmatize = LemmatizeDictionary
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = FormatConsole
	}
}

// Validate rejects configurations the daemon cannot run with.
func (c *Config) Validate() error {
	var errs []error
	switch c.Store.Driver {
	case DriverBolt:
		if strings.TrimSpace(c.Store.BoltPath) == "" {
			errs = append(errs, errors.New("[store].bolt_path is required for the bolt driver"))
		}
	case DriverMongo:
		if strings.TrimSpace(c.Store.MongoURI) == "" {
			errs = append(errs, errors.New("[store].mongo_uri is required for the mongo driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("[store].driver must be %q or %q, got %q", DriverBolt, DriverMongo, c.Store.Driver))
	}
	if d, err := time.ParseDuration(c.Store.Timeout); err != nil || d <= 0 {
		errs = append(errs, fmt.Errorf("[store].timeout must be a positive duration, got %q", c.Store.Timeout))
	}
	if c.Analysis.HighFrequencyThreshold < 1 {
		errs = append(errs, fmt.Errorf("[analysis].high_frequency_threshold must be at least 1, got %d", c.Analysis.HighFrequencyThreshold))
	}
	switch c.Analysis.Lemmatize {
	case LemmatizeDictionary:
		if c.Analysis.Language != "english" {
			errs = append(errs, fmt.Errorf("[analysis].lemmatize = %q needs language \"english\", got %q; use %q or %q",
				LemmatizeDictionary, c.Analysis.Language, LemmatizeRules, LemmatizeOff))
		}
	case LemmatizeRules, LemmatizeOff:
	default:
		errs = append(errs, fmt.Errorf("[analysis].lemmatize must be %q, %q or %q, got %q",
			LemmatizeDictionary, LemmatizeRules, LemmatizeOff, c.Analysis.Lemmatize))
	}
	if c.Names.Watch && c.Names.Path == "" && c.Store.Driver != DriverBolt {
		errs = append(errs, errors.New("[names].watch has nothing to watch without [names].path or a bolt store"))
	}
	switch c.Log.Format {
	case FormatJSON, FormatConsole:
	default:
		errs = append(errs, fmt.Errorf("[log].format must be %q or %q, got %q", FormatJSON, FormatConsole, c.Log.Format))
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// ParseLevel parses a log level name ("debug", "info", "warn", "error").
func ParseLevel(level string) (zapcore.Level, error) {
	l, err := zapcore.ParseLevel(level)
	if err != nil {
		return zapcore.InfoLevel, fmt.Errorf("[log].level: %w", err)
	}
	return l, nil
}

// StoreTimeout returns the parsed fetch timeout. Call after Validate.
func (c *Config) StoreTimeout() time.Duration {
	d, err := time.ParseDuration(c.Store.Timeout)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

// StopWords returns the configured extra stop words as a lowercase set.
func (c *Config) StopWords() lexicon.Set {
	words := make([]string, 0, len(c.Analysis.ExtraStopWords))
	for _, w := range c.Analysis.ExtraStopWords {
		if w = strings.ToLower(strings.TrimSpace(w)); w != "" {
			words = append(words, w)
		}
	}
	return lexicon.NewSet(words...)
}

// Load reads path, applies defaults and validates. A missing file yields
// Default() with Path set.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		cfg := Default()
		cfg.Path = path
		return cfg, nil
	} else if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	var cfg Config
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if !meta.IsDefined("analysis", "singleton_stop_words") {
		cfg.Analysis.SingletonStopWords = true
	}
	cfg.Path = path
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &cfg, nil
}
