package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "./ir.idx", cfg.Index.Path)
	assert.Equal(t, "file", cfg.Index.Backend)
	assert.Equal(t, "snowball", cfg.Index.Lemmatizer)
	assert.Equal(t, 5, cfg.Search.DefaultLimit)
	assert.Equal(t, 1.5, cfg.Search.K1)
	assert.Equal(t, 0.75, cfg.Search.B)
	assert.False(t, cfg.Redis.Enabled)
	assert.False(t, cfg.Kafka.Enabled)
}

func TestLoadYAMLOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yamlDoc := `
index:
  path: /tmp/news.idx
  backend: bolt
  extraStopwords: [said, cnn]
search:
  strategy: postings
  defaultLimit: 10
redis:
  enabled: true
  cacheTTL: 2m
`
	require.NoError(t, os.WriteFile(path, []byte(yamlDoc), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/news.idx", cfg.Index.Path)
	assert.Equal(t, "bolt", cfg.Index.Backend)
	assert.Equal(t, []string{"said", "cnn"}, cfg.Index.ExtraStopwords)
	assert.Equal(t, "postings", cfg.Search.Strategy)
	assert.Equal(t, 10, cfg.Search.DefaultLimit)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, 2*time.Minute, cfg.Redis.CacheTTL)
	// untouched sections keep their defaults
	assert.Equal(t, "snowball", cfg.Index.Lemmatizer)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("BM25_INDEX_PATH", "/var/lib/bm25/ir.idx")
	t.Setenv("BM25_REDIS_ADDR", "cache:6379")
	t.Setenv("BM25_KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("BM25_SERVER_PORT", "9999")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/bm25/ir.idx", cfg.Index.Path)
	assert.Equal(t, "cache:6379", cfg.Redis.Addr)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.True(t, cfg.Kafka.Enabled)
	assert.Equal(t, 9999, cfg.Server.Port)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown backend", func(c *Config) { c.Index.Backend = "sqlite" }},
		{"unknown stopwords", func(c *Config) { c.Index.Stopwords = "french" }},
		{"empty index path", func(c *Config) { c.Index.Path = "" }},
		{"unknown strategy", func(c *Config) { c.Search.Strategy = "bitmap" }},
		{"zero limit", func(c *Config) { c.Search.DefaultLimit = 0 }},
		{"limit above max", func(c *Config) { c.Search.DefaultLimit = 500 }},
		{"b out of range", func(c *Config) { c.Search.B = 1.5 }},
		{"unknown source", func(c *Config) { c.Dataset.Source = "csv" }},
		{"negative rate limit", func(c *Config) { c.Server.RateLimit = -1 }},
		{"unknown log level", func(c *Config) { c.Logging.Level = "verbose" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	assert.NoError(t, Default().Validate())
}

func TestDevelopmentConfigLoads(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "configs", "development.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "postings", cfg.Search.Strategy)
	assert.Equal(t, 600, cfg.Server.RateLimit)
	assert.Equal(t, time.Minute, cfg.Analytics.SnapshotInterval)
}
