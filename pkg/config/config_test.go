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
	assert.Equal(t, 5, cfg.Engine.MaxResults)
	assert.Empty(t, cfg.Engine.StopWords)
	assert.False(t, cfg.Kafka.Enabled)
	assert.False(t, cfg.Redis.Enabled)
	assert.False(t, cfg.Postgres.Enabled)
	assert.Equal(t, "documents", cfg.Postgres.Table)
	assert.Equal(t, 5, cfg.Server.ConnectAttempts)
	assert.Zero(t, cfg.Server.IngestRatePerMinute)
	assert.Equal(t, 5, cfg.Redis.BreakerThreshold)
	assert.False(t, cfg.Spool.Enabled)
	assert.Equal(t, "spool", cfg.Spool.Dir)
}

func TestLoadYAML(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9000
  readTimeout: 5s
engine:
  stopWords: "и в на"
  maxResults: 3
redis:
  enabled: true
  cacheTTL: 2m
kafka:
  enabled: true
  brokers: ["k1:9092", "k2:9092"]
  topics:
    documentIngest: docs
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 30*time.Second, cfg.Server.WriteTimeout, "unset keys keep defaults")
	assert.Equal(t, "и в на", cfg.Engine.StopWords)
	assert.Equal(t, 3, cfg.Engine.MaxResults)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, 2*time.Minute, cfg.Redis.CacheTTL)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "docs", cfg.Kafka.Topics.DocumentIngest)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SP_SERVER_PORT", "7000")
	t.Setenv("SP_ENGINE_STOP_WORDS", "in the")
	t.Setenv("SP_ENGINE_MAX_RESULTS", "10")
	t.Setenv("SP_REDIS_ENABLED", "true")
	t.Setenv("SP_KAFKA_BROKERS", "a:1,b:2")
	t.Setenv("SP_LOGGING_LEVEL", "debug")
	t.Setenv("SP_SPOOL_ENABLED", "true")
	t.Setenv("SP_SPOOL_DIR", "/var/spool/docs")
	t.Setenv("SP_SERVER_INGEST_RATE_PER_MINUTE", "120")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, "in the", cfg.Engine.StopWords)
	assert.Equal(t, 10, cfg.Engine.MaxResults)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, []string{"a:1", "b:2"}, cfg.Kafka.Brokers)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Spool.Enabled)
	assert.Equal(t, "/var/spool/docs", cfg.Spool.Dir)
	assert.Equal(t, 120, cfg.Server.IngestRatePerMinute)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "server: [unclosed"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "engine:\n  maxResults: -1\n"))
	assert.ErrorContains(t, err, "maxResults")

	_, err = Load(writeConfig(t, "kafka:\n  enabled: true\n  brokers: []\n"))
	assert.ErrorContains(t, err, "brokers")

	_, err = Load(writeConfig(t, "spool:\n  enabled: true\n  dir: \"\"\n"))
	assert.ErrorContains(t, err, "spool.dir")

	_, err = Load(writeConfig(t, "server:\n  ingestRatePerMinute: -5\n"))
	assert.ErrorContains(t, err, "ingestRatePerMinute")
}

func TestDSN(t *testing.T) {
	p := PostgresConfig{Host: "db", Port: 5433, User: "u", Password: "p", Database: "d", SSLMode: "require"}
	assert.Equal(t, "host=db port=5433 user=u password=p dbname=d sslmode=require", p.DSN())
}
