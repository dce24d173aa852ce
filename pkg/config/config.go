// Package config загружает YAML конфигурацию sqlscan
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ruslano69/sqlscan/pkg/adapters"
	_ "github.com/ruslano69/sqlscan/pkg/adapters/mssql"
	_ "github.com/ruslano69/sqlscan/pkg/adapters/mysql"
	_ "github.com/ruslano69/sqlscan/pkg/adapters/postgres"
	_ "github.com/ruslano69/sqlscan/pkg/adapters/sqlite"
	"github.com/ruslano69/sqlscan/pkg/checkpoint"
	"github.com/ruslano69/sqlscan/pkg/logging"
	"github.com/ruslano69/sqlscan/pkg/scan"
	"github.com/ruslano69/sqlscan/pkg/sinks"
)

// Config represents the main configuration structure
type Config struct {
	Database   DatabaseConfig    `yaml:"database"`
	Log        logging.Config    `yaml:"log,omitempty"`
	Scan       ScanConfig        `yaml:"scan,omitempty"`
	Checkpoint checkpoint.Config `yaml:"checkpoint,omitempty"`
	Sink       sinks.Config      `yaml:"sink,omitempty"`
	Metrics    MetricsConfig     `yaml:"metrics,omitempty"`
}

// DatabaseConfig contains database connection and pool settings
type DatabaseConfig struct {
	Type     string            `yaml:"type"`               // mysql, postgres, sqlite, mssql
	DSN      string            `yaml:"dsn,omitempty"`      // перекрывает поля ниже
	Host     string            `yaml:"host,omitempty"`     // For network databases
	Port     int               `yaml:"port,omitempty"`     // Database port
	Database string            `yaml:"database"`           // Database name or file path
	User     string            `yaml:"user,omitempty"`     // Username
	Password string            `yaml:"password,omitempty"` // Password
	Charset  string            `yaml:"charset,omitempty"`  // MySQL, default utf8mb4
	Params   map[string]string `yaml:"params,omitempty"`   // Driver parameters
	Timeout  time.Duration     `yaml:"timeout,omitempty"`  // Connect timeout

	Pool PoolConfig `yaml:"pool,omitempty"`
}

// PoolConfig - лимиты пула соединений
type PoolConfig struct {
	MaxConnections  int           `yaml:"max_connections"`
	MinCached       int           `yaml:"min_cached"`
	MaxCached       int           `yaml:"max_cached"`
	MaxUsage        int           `yaml:"max_usage"`
	Blocking        *bool         `yaml:"blocking,omitempty"` // по умолчанию true
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime,omitempty"`
}

// ScanConfig - значения по умолчанию для команды scan
type ScanConfig struct {
	SortKey    string        `yaml:"sort_key,omitempty"`
	Once       int           `yaml:"once,omitempty"`
	Rest       time.Duration `yaml:"rest,omitempty"` // -1ns = без паузы
	MaxQueries int           `yaml:"max_queries,omitempty"`
	Shards     int           `yaml:"shards,omitempty"`
}

// MetricsConfig - HTTP endpoint для Prometheus
type MetricsConfig struct {
	Addr string `yaml:"addr,omitempty"` // ":9090"; пусто = выключено
}

// Load loads configuration from YAML file
func Load(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", filename, err)
	}
	return &cfg, nil
}

// Save saves configuration to YAML file
func Save(filename string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate проверяет обязательные поля и лимиты
func (c *Config) Validate() error {
	if c.Database.Type == "" {
		return fmt.Errorf("database.type is required")
	}
	if !adapters.IsRegistered(c.Database.Type) {
		return fmt.Errorf("unsupported database type: %s (available: %v)", c.Database.Type, adapters.Types())
	}
	if c.Database.DSN == "" && c.Database.Database == "" {
		return fmt.Errorf("database.database or database.dsn is required")
	}

	p := c.Database.Pool
	if p.MaxConnections < 0 || p.MinCached < 0 || p.MaxCached < 0 || p.MaxUsage < 0 {
		return fmt.Errorf("pool limits must be >= 0")
	}
	if p.MaxConnections > 0 && p.MinCached > p.MaxConnections {
		return fmt.Errorf("pool.min_cached (%d) must be <= max_connections (%d)", p.MinCached, p.MaxConnections)
	}

	if c.Scan.Once < 0 || c.Scan.MaxQueries < 0 || c.Scan.Shards < 0 {
		return fmt.Errorf("scan.once, scan.max_queries and scan.shards must be >= 0")
	}
	if c.Scan.Rest < 0 && c.Scan.Rest != scan.NoRest {
		return fmt.Errorf("scan.rest must be >= 0 or -1ns to disable pacing")
	}

	switch c.Log.Format {
	case "", logging.FormatConsole, logging.FormatText, logging.FormatJSON:
	default:
		return fmt.Errorf("unknown log format: %s", c.Log.Format)
	}
	return nil
}

// Adapter возвращает конфигурацию подключения для adapters/pool
func (c *Config) Adapter() adapters.Config {
	d := c.Database
	out := adapters.DefaultConfig()
	out.Type = d.Type
	out.DSN = d.DSN
	out.Host = d.Host
	out.Port = d.Port
	out.User = d.User
	out.Password = d.Password
	out.Database = d.Database
	out.Params = d.Params
	out.Timeout = d.Timeout
	if d.Charset != "" {
		out.Charset = d.Charset
	}

	if d.Pool.MaxConnections > 0 {
		out.MaxConnections = d.Pool.MaxConnections
	}
	out.MinCached = d.Pool.MinCached
	out.MaxCached = d.Pool.MaxCached
	out.MaxUsage = d.Pool.MaxUsage
	out.ConnMaxLifetime = d.Pool.ConnMaxLifetime
	if d.Pool.Blocking != nil {
		out.Blocking = *d.Pool.Blocking
	}
	return out
}

// ScanOptions переносит значения по умолчанию в scan.Options
func (c *Config) ScanOptions(table string) scan.Options {
	return scan.Options{
		Table:      table,
		SortKey:    c.Scan.SortKey,
		Once:       c.Scan.Once,
		Rest:       c.Scan.Rest,
		MaxQueries: c.Scan.MaxQueries,
	}
}

// Sample creates sample configuration for different database types
func Sample(dbType string) *Config {
	blocking := true
	cfg := &Config{
		Database: DatabaseConfig{
			Type: dbType,
			Pool: PoolConfig{
				MaxConnections: 4,
				Blocking:       &blocking,
			},
		},
		Log: logging.Config{
			Level:  "info",
			Format: logging.FormatConsole,
		},
		Scan: ScanConfig{
			SortKey: scan.DefaultSortKey,
			Once:    scan.DefaultOnce,
			Rest:    scan.DefaultRest,
		},
		Checkpoint: checkpoint.Config{
			Type:     checkpoint.TypeFile,
			Path:     "sqlscan.checkpoints.json",
			AutoSave: true,
		},
		Sink: sinks.Config{
			Type:  sinks.TypeLog,
			Retry: sinks.DefaultRetryConfig(),
		},
	}

	switch dbType {
	case "postgres", "postgresql":
		cfg.Database.Host = "localhost"
		cfg.Database.Port = 5432
		cfg.Database.Database = "mydb"
		cfg.Database.User = "postgres"
		cfg.Database.Password = "password"

	case "mssql":
		cfg.Database.Host = "localhost"
		cfg.Database.Port = 1433
		cfg.Database.Database = "mydb"
		cfg.Database.User = "sa"
		cfg.Database.Password = "YourPassword123"

	case "sqlite":
		cfg.Database.Database = "database.db"

	default:
		cfg.Database.Type = "mysql"
		cfg.Database.Host = "localhost"
		cfg.Database.Port = 3306
		cfg.Database.Database = "mydb"
		cfg.Database.User = "root"
		cfg.Database.Password = "password"
		cfg.Database.Charset = "utf8mb4"
	}

	return cfg
}
