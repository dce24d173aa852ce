package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/ruslano69/sqlscan/pkg/adapters"
	"github.com/ruslano69/sqlscan/pkg/adapters/base"
)

// AdapterType идентификатор PostgreSQL адаптера
const AdapterType = "postgres"

var _ adapters.Adapter = (*Adapter)(nil)

func init() {
	adapters.Register(AdapterType, func() adapters.Adapter {
		return NewAdapter()
	})
	adapters.Register("postgresql", func() adapters.Adapter {
		return NewAdapter()
	})
}

// Adapter реализует adapters.Adapter для PostgreSQL поверх pgx
type Adapter struct {
	base.StandardSQL
}

// NewAdapter создает адаптер с плейсхолдерами $n
func NewAdapter() *Adapter {
	return &Adapter{StandardSQL: base.StandardSQL{Style: base.Dollar}}
}

// Name возвращает тип адаптера
func (a *Adapter) Name() string {
	return AdapterType
}

// DSN строит postgres:// URL из конфигурации
func (a *Adapter) DSN(cfg adapters.Config) string {
	if cfg.DSN != "" {
		return cfg.DSN
	}

	port := cfg.Port
	if port == 0 {
		port = 5432
	}

	q := url.Values{}
	q.Set("sslmode", "disable")
	if cfg.Timeout > 0 {
		q.Set("connect_timeout", strconv.Itoa(int(cfg.Timeout.Seconds())))
	}
	for k, v := range cfg.Params {
		q.Set(k, v)
	}

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     fmt.Sprintf("%s:%d", cfg.Host, port),
		Path:     "/" + cfg.Database,
		RawQuery: q.Encode(),
	}
	return u.String()
}

// Open парсит конфигурацию pgx и открывает *sql.DB через pgx/stdlib
func (a *Adapter) Open(ctx context.Context, cfg adapters.Config) (*sql.DB, error) {
	connConfig, err := pgx.ParseConfig(a.DSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return stdlib.OpenDB(*connConfig), nil
}

// Upsert строит INSERT ... ON CONFLICT DO UPDATE
func (a *Adapter) Upsert(table string, columns []string, unique, update string) string {
	return base.OnConflictUpsert(table, columns, unique, update)
}

// UpdateLimit - PostgreSQL не поддерживает UPDATE ... LIMIT
func (a *Adapter) UpdateLimit(limit int) (string, error) {
	return "", fmt.Errorf("postgres: UPDATE ... LIMIT is not supported")
}

// RandomSample - случайная выборка через ORDER BY random()
func (a *Adapter) RandomSample(table, key string, limit int) string {
	return fmt.Sprintf("SELECT * FROM %s ORDER BY random() LIMIT %d", table, limit)
}

// SampleTableDDL - тестовая таблица для seed генератора
func (a *Adapter) SampleTableDDL(table string) string {
	return fmt.Sprintf(`
		CREATE TABLE %s
		(
			id          SERIAL PRIMARY KEY,
			name        VARCHAR(64),
			gender      VARCHAR(1),
			age         INTEGER,
			phone       VARCHAR(20),
			ssn         VARCHAR(18),
			job         VARCHAR(200),
			salary      INTEGER,
			company     VARCHAR(200),
			address     VARCHAR(200),
			mark        VARCHAR(1)
		)`, table)
}
