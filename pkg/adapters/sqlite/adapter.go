package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/ruslano69/sqlscan/pkg/adapters"
	"github.com/ruslano69/sqlscan/pkg/adapters/base"
)

// AdapterType идентификатор SQLite адаптера
const AdapterType = "sqlite"

const driverSqlite = "sqlite"

// Compile-time check: Adapter должен реализовывать интерфейс adapters.Adapter
var _ adapters.Adapter = (*Adapter)(nil)

// Регистрация адаптера в глобальной фабрике
func init() {
	adapters.Register(AdapterType, func() adapters.Adapter {
		return &Adapter{}
	})
}

// defaultPragmas применяются к каждому соединению пула через DSN.
// PRAGMA через db.Exec действует только на одно соединение, поэтому
// задаем их параметрами _pragma драйвера modernc.
var defaultPragmas = []string{
	// WAL mode: читатели не блокируют писателя
	"journal_mode(WAL)",
	// Synchronous NORMAL безопасен в WAL mode
	"synchronous(NORMAL)",
	// Ждать блокировку вместо немедленного SQLITE_BUSY
	"busy_timeout(5000)",
	// Temp store в памяти
	"temp_store(MEMORY)",
}

// Adapter представляет адаптер для работы с SQLite
type Adapter struct {
	base.StandardSQL
}

// Name возвращает тип СУБД
func (a *Adapter) Name() string {
	return AdapterType
}

// DSN строит строку подключения: путь к файлу + PRAGMA параметры.
// Если в пути уже есть параметры, он используется как есть.
func (a *Adapter) DSN(cfg adapters.Config) string {
	if cfg.DSN != "" {
		return cfg.DSN
	}

	path := cfg.Database
	if strings.Contains(path, "?") {
		return path
	}

	q := url.Values{}
	for _, p := range defaultPragmas {
		q.Add("_pragma", p)
	}
	for k, v := range cfg.Params {
		q.Set(k, v)
	}
	return path + "?" + q.Encode()
}

// Open открывает SQLite базу данных
func (a *Adapter) Open(ctx context.Context, cfg adapters.Config) (*sql.DB, error) {
	db, err := sql.Open(driverSqlite, a.DSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// Upsert строит INSERT ... ON CONFLICT DO UPDATE
func (a *Adapter) Upsert(table string, columns []string, unique, update string) string {
	return base.OnConflictUpsert(table, columns, unique, update)
}

// UpdateLimit - стандартная сборка SQLite не поддерживает UPDATE ... LIMIT
func (a *Adapter) UpdateLimit(limit int) (string, error) {
	return "", fmt.Errorf("sqlite: UPDATE ... LIMIT is not supported")
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
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			name        TEXT,
			gender      TEXT,
			age         INTEGER,
			phone       TEXT,
			ssn         TEXT,
			job         TEXT,
			salary      INTEGER,
			company     TEXT,
			address     TEXT,
			mark        TEXT
		)`, table)
}
