package adapters

import (
	"context"
	"database/sql"
	"time"
)

// Config - конфигурация подключения и пула соединений
type Config struct {
	// Type - тип СУБД: "mysql", "postgres", "sqlite", "mssql"
	Type string

	// DSN - строка подключения. Если пустая, адаптер строит ее из полей ниже
	DSN string

	Host     string
	Port     int
	User     string
	Password string
	Database string

	// Charset - кодировка соединения (MySQL), по умолчанию utf8mb4
	Charset string

	// Params - дополнительные параметры драйвера
	Params map[string]string

	// MaxConnections - максимальное количество соединений в пуле
	MaxConnections int

	// MinCached - сколько соединений открыть заранее при создании пула
	MinCached int

	// MaxCached - максимальное количество idle соединений (0 = MaxConnections)
	MaxCached int

	// MaxUsage - сколько раз можно переиспользовать одно соединение (0 = без ограничений)
	MaxUsage int

	// Blocking - ждать свободное соединение, если пул исчерпан.
	// false: Acquire сразу возвращает pool.ErrExhausted
	Blocking bool

	// ConnMaxLifetime - максимальное время жизни соединения (0 = без ограничений)
	ConnMaxLifetime time.Duration

	// Timeout - таймаут подключения
	Timeout time.Duration
}

// DefaultConfig returns the pool defaults: localhost, utf8mb4, four
// connections, no pre-opened or cached limits and blocking acquisition.
func DefaultConfig() Config {
	return Config{
		Type:           "mysql",
		Host:           "localhost",
		Port:           3306,
		Charset:        "utf8mb4",
		MaxConnections: 4,
		Blocking:       true,
	}
}

// Adapter - драйвер конкретной СУБД плюс ее SQL диалект
type Adapter interface {
	// Name возвращает тип СУБД: "mysql", "postgres", "sqlite", "mssql"
	Name() string

	// Open открывает *sql.DB (пул соединений database/sql) для конфигурации
	Open(ctx context.Context, cfg Config) (*sql.DB, error)

	Dialect
}

// Dialect - различия синтаксиса, которые нужны access layer
type Dialect interface {
	// Rebind переписывает плейсхолдеры "?" в синтаксис драйвера ($1, @p1)
	Rebind(query string) string

	// SelectLimit строит SELECT с ограничением количества строк.
	// where и orderBy могут быть пустыми.
	SelectLimit(columns, table, where, orderBy string, limit int) string

	// Upsert строит INSERT для одной строки с обновлением при конфликте по unique.
	// update - готовый текст обновления; пустой = no-op обновление unique колонки
	Upsert(table string, columns []string, unique, update string) string

	// UpdateLimit возвращает суффикс "LIMIT n" для UPDATE или ошибку,
	// если СУБД его не поддерживает
	UpdateLimit(limit int) (string, error)

	// RandomSample строит запрос случайной выборки limit строк
	RandomSample(table, key string, limit int) string

	// SampleTableDDL возвращает CREATE TABLE для тестовой таблицы seed генератора
	SampleTableDDL(table string) string
}
