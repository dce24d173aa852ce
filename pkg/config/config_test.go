package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ruslano69/sqlscan/pkg/checkpoint"
	"github.com/ruslano69/sqlscan/pkg/scan"
	"github.com/ruslano69/sqlscan/pkg/sinks"
)

func TestSaveLoad_Sample(t *testing.T) {
	for _, dbType := range []string{"mysql", "postgres", "sqlite", "mssql"} {
		t.Run(dbType, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "sqlscan.yaml")
			require.NoError(t, Save(path, Sample(dbType)))

			cfg, err := Load(path)
			require.NoError(t, err)
			assert.Equal(t, dbType, cfg.Database.Type)
			assert.Equal(t, scan.DefaultRest, cfg.Scan.Rest)
			assert.Equal(t, checkpoint.TypeFile, cfg.Checkpoint.Type)
			assert.Equal(t, sinks.BackoffExponential, cfg.Sink.Retry.Backoff)
			assert.True(t, cfg.Adapter().Blocking)
		})
	}
}

func TestLoad_Parse(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
database:
  type: sqlite
  database: /tmp/app.db
  pool:
    max_connections: 8
    min_cached: 2
    max_usage: 100
    blocking: false
scan:
  sort_key: uid
  once: 500
  rest: -1ns
  max_queries: 3
checkpoint:
  type: redis
  redis:
    address: localhost:6379
    ttl: 24h
sink:
  type: kafka
  compress: true
  kafka:
    brokers: [k1:9092, k2:9092]
    topic: users
  retry:
    max_attempts: 5
    initial_delay: 200ms
metrics:
  addr: ":9090"
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	a := cfg.Adapter()
	assert.Equal(t, 8, a.MaxConnections)
	assert.Equal(t, 2, a.MinCached)
	assert.Equal(t, 100, a.MaxUsage)
	assert.False(t, a.Blocking)
	assert.Equal(t, "utf8mb4", a.Charset)

	opts := cfg.ScanOptions("users")
	assert.Equal(t, "users", opts.Table)
	assert.Equal(t, "uid", opts.SortKey)
	assert.Equal(t, scan.NoRest, opts.Rest)
	assert.Equal(t, 3, opts.MaxQueries)

	assert.Equal(t, 24*time.Hour, cfg.Checkpoint.Redis.TTL)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Sink.Kafka.Brokers)
	assert.Equal(t, 200*time.Millisecond, cfg.Sink.Retry.InitialDelay)
	assert.Equal(t, ":9090", cfg.Metrics.Addr)
}

func TestValidate(t *testing.T) {
	cases := map[string]func(c *Config){
		"no type":      func(c *Config) { c.Database.Type = "" },
		"unknown type": func(c *Config) { c.Database.Type = "oracle" },
		"no database":  func(c *Config) { c.Database.Database = "" },
		"min > max":    func(c *Config) { c.Database.Pool.MinCached = 10 },
		"negative":     func(c *Config) { c.Scan.Once = -1 },
		"bad rest":     func(c *Config) { c.Scan.Rest = -time.Second },
		"bad format":   func(c *Config) { c.Log.Format = "xml" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Sample("sqlite")
			mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	assert.NoError(t, Sample("sqlite").Validate())
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorContains(t, err, "failed to read config file")
}
