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
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "vector-space", cfg.Retrieval.DefaultModel)
	assert.Equal(t, "average", cfg.Retrieval.ReferenceLength)
	assert.Equal(t, 5*time.Second, cfg.Retrieval.Timeout)
	assert.Equal(t, "retrieval.search-events", cfg.Kafka.Topics.SearchEvents)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9000
retrieval:
  defaultModel: set-based
  referenceLength: median
  defaultLimit: 20
  maxResults: 200
  timeout: 2s
  models:
    set-based:
      mode: Okapi BM25
      parameters:
        Proximity Distance: 5
        BM25 K: 1.2
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "median", cfg.Retrieval.ReferenceLength)
	assert.Equal(t, 2*time.Second, cfg.Retrieval.Timeout)

	sb := cfg.Retrieval.Models["set-based"]
	assert.Equal(t, "Okapi BM25", sb.Mode)
	assert.Equal(t, 5.0, sb.Parameters["Proximity Distance"])
	assert.Equal(t, 1.2, sb.Parameters["BM25 K"])
	// untouched sections keep their defaults
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("RE_SERVER_PORT", "7070")
	t.Setenv("RE_RETRIEVAL_DEFAULT_MODEL", "boolean")
	t.Setenv("RE_REDIS_ENABLED", "false")
	t.Setenv("RE_KAFKA_BROKERS", "k1:9092,k2:9092")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "boolean", cfg.Retrieval.DefaultModel)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
}

func TestLoadValidation(t *testing.T) {
	path := writeConfig(t, `
retrieval:
  defaultLimit: 50
  maxResults: 10
`)
	_, err := Load(path)
	assert.ErrorContains(t, err, "maxResults")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestPostgresDSN(t *testing.T) {
	p := PostgresConfig{Host: "db", Port: 5433, User: "u", Password: "p", Database: "d", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5433 user=u password=p dbname=d sslmode=disable", p.DSN())
}
