package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "percept.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoad_MissingFileGivesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.toml")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, path, cfg.Path)
	assert.Equal(t, DriverBolt, cfg.Store.Driver)
	assert.Equal(t, "percept.db", cfg.Store.BoltPath)
	assert.Equal(t, "english", cfg.Analysis.Language)
	assert.Equal(t, 300, cfg.Analysis.HighFrequencyThreshold)
	assert.True(t, cfg.Analysis.SingletonStopWords)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_FullFile(t *testing.T) {
	path := writeConfig(t, `
[server]
http_addr = "127.0.0.1:8080"

[store]
driver = "mongo"
mongo_uri = "mongodb://localhost:27017"
timeout = "5s"

[names]
path = "data/meta_alternative_name_list.csv"
watch = true

[analysis]
language = "french"
high_frequency_threshold = 50
singleton_stop_words = false
extra_stop_words = ["Le", " la "]

[log]
level = "debug"
format = "json"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:8080", cfg.Server.HTTPAddr)
	assert.Equal(t, DriverMongo, cfg.Store.Driver)
	assert.Equal(t, "percept-corpus", cfg.Store.MongoDatabase, "unset fields still get defaults")
	assert.Equal(t, 5*time.Second, cfg.StoreTimeout())
	assert.True(t, cfg.Names.Watch)
	assert.Equal(t, "french", cfg.Analysis.Language)
	assert.Equal(t, 50, cfg.Analysis.HighFrequencyThreshold)
	assert.False(t, cfg.Analysis.SingletonStopWords, "an explicit false is kept")
	assert.True(t, cfg.StopWords().Contains("le"))
	assert.True(t, cfg.StopWords().Contains("la"))
	assert.Equal(t, FormatJSON, cfg.Log.Format)
}

func TestLoad_SingletonStopWordsDefaultsTrue(t *testing.T) {
	path := writeConfig(t, "[analysis]\nlanguage = \"english\"\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.Analysis.SingletonStopWords)
}

func TestLoad_LemmatizeModes(t *testing.T) {
	cfg, err := Load(writeConfig(t, "[analysis]\nlanguage = \"french\"\nlemmatize = \"rules\"\n"))
	require.NoError(t, err)
	assert.Equal(t, LemmatizeRules, cfg.Analysis.Lemmatize)

	assert.Equal(t, LemmatizeDictionary, Default().Analysis.Lemmatize)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bad toml", "[store\n"},
		{"unknown key", "[store]\ndrivr = \"bolt\"\n"},
		{"unknown driver", "[store]\ndriver = \"redis\"\n"},
		{"mongo without uri", "[store]\ndriver = \"mongo\"\n"},
		{"bad timeout", "[store]\ntimeout = \"soon\"\n"},
		{"negative threshold", "[analysis]\nhigh_frequency_threshold = -1\n"},
		{"bad lemmatize", "[analysis]\nlemmatize = \"wordnet\"\n"},
		{"dictionary lemmas are english only", "[analysis]\nlanguage = \"french\"\n"},
		{"bad level", "[log]\nlevel = \"loud\"\n"},
		{"bad format", "[log]\nformat = \"xml\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestValidate_CollectsEveryProblem(t *testing.T) {
	cfg := Default()
	cfg.Store.Driver = "redis"
	cfg.Log.Format = "xml"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "[store].driver")
	assert.Contains(t, err.Error(), "[log].format")
}

func TestParseLevel(t *testing.T) {
	l, err := ParseLevel("warn")
	require.NoError(t, err)
	assert.Equal(t, "warn", l.String())

	_, err = ParseLevel("chatty")
	assert.Error(t, err)
}
