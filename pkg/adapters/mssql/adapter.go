package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"

	_ "github.com/denisenkom/go-mssqldb" // MS SQL Server driver

	"github.com/ruslano69/sqlscan/pkg/adapters"
	"github.com/ruslano69/sqlscan/pkg/adapters/base"
)

// AdapterType идентификатор MS SQL адаптера
const AdapterType = "mssql"

var _ adapters.Adapter = (*Adapter)(nil)

func init() {
	adapters.Register(AdapterType, func() adapters.Adapter {
		return &Adapter{}
	})
}

// Adapter реализует adapters.Adapter для MS SQL Server.
// Драйвер "sqlserver" принимает только именованные параметры @p1..@pN,
// поэтому Rebind переписывает "?".
type Adapter struct{}

// Name возвращает тип адаптера
func (a *Adapter) Name() string {
	return AdapterType
}

// DSN строит sqlserver:// URL
func (a *Adapter) DSN(cfg adapters.Config) string {
	if cfg.DSN != "" {
		return cfg.DSN
	}

	port := cfg.Port
	if port == 0 {
		port = 1433
	}

	q := url.Values{}
	q.Set("database", cfg.Database)
	if cfg.Timeout > 0 {
		q.Set("connection timeout", fmt.Sprintf("%d", int(cfg.Timeout.Seconds())))
	}
	for k, v := range cfg.Params {
		q.Set(k, v)
	}

	u := url.URL{
		Scheme:   "sqlserver",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     fmt.Sprintf("%s:%d", cfg.Host, port),
		RawQuery: q.Encode(),
	}
	return u.String()
}

// Open открывает пул соединений MS SQL Server
func (a *Adapter) Open(ctx context.Context, cfg adapters.Config) (*sql.DB, error) {
	db, err := sql.Open("sqlserver", a.DSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// Rebind переписывает "?" в @p1..@pN
func (a *Adapter) Rebind(query string) string {
	return base.Rebind(base.AtP, query)
}

// SelectLimit использует TOP (n) вместо LIMIT
func (a *Adapter) SelectLimit(columns, table, where, orderBy string, limit int) string {
	if columns == "" {
		columns = "*"
	}

	var b strings.Builder
	b.WriteString("SELECT ")
	if limit > 0 {
		fmt.Fprintf(&b, "TOP (%d) ", limit)
	}
	fmt.Fprintf(&b, "%s FROM %s", columns, table)
	if where != "" {
		b.WriteString(" WHERE ")
		b.WriteString(where)
	}
	if orderBy != "" {
		b.WriteString(" ORDER BY ")
		b.WriteString(orderBy)
	}
	return b.String()
}

// Upsert строит MERGE для одной строки. Без update строка, совпавшая по
// unique, остается как есть.
func (a *Adapter) Upsert(table string, columns []string, unique, update string) string {
	src := make([]string, len(columns))
	vals := make([]string, len(columns))
	for i, c := range columns {
		src[i] = "? AS " + c
		vals[i] = "src." + c
	}

	var b strings.Builder
	fmt.Fprintf(&b, "MERGE INTO %s AS dst USING (SELECT %s) AS src ON dst.%s = src.%s",
		table, strings.Join(src, ", "), unique, unique)
	if update != "" {
		fmt.Fprintf(&b, " WHEN MATCHED THEN UPDATE SET %s", update)
	}
	fmt.Fprintf(&b, " WHEN NOT MATCHED THEN INSERT (%s) VALUES (%s);",
		strings.Join(columns, ", "), strings.Join(vals, ", "))
	return b.String()
}

// UpdateLimit - UPDATE TOP (n) является префиксом, суффикс не поддерживается
func (a *Adapter) UpdateLimit(limit int) (string, error) {
	return "", fmt.Errorf("mssql: UPDATE ... LIMIT is not supported")
}

// RandomSample - случайная выборка через ORDER BY NEWID()
func (a *Adapter) RandomSample(table, key string, limit int) string {
	return fmt.Sprintf("SELECT TOP (%d) * FROM %s ORDER BY NEWID()", limit, table)
}

// SampleTableDDL - тестовая таблица для seed генератора
func (a *Adapter) SampleTableDDL(table string) string {
	return fmt.Sprintf(`
		CREATE TABLE %s
		(
			id          INT IDENTITY(1,1) PRIMARY KEY,
			name        NVARCHAR(64),
			gender      NVARCHAR(1),
			age         INT,
			phone       NVARCHAR(20),
			ssn         NVARCHAR(18),
			job         NVARCHAR(200),
			salary      INT,
			company     NVARCHAR(200),
			address     NVARCHAR(200),
			mark        NVARCHAR(1)
		)`, table)
}
