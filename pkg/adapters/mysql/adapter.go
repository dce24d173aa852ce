package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/ruslano69/sqlscan/pkg/adapters"
	"github.com/ruslano69/sqlscan/pkg/adapters/base"
)

// AdapterType идентификатор MySQL адаптера
const AdapterType = "mysql"

// Compile-time check
var _ adapters.Adapter = (*Adapter)(nil)

// Adapter реализует adapters.Adapter для MySQL
type Adapter struct {
	base.StandardSQL
}

func init() {
	// Регистрируем MySQL адаптер в фабрике
	adapters.Register(AdapterType, func() adapters.Adapter {
		return &Adapter{}
	})
}

// Name возвращает тип адаптера
func (a *Adapter) Name() string {
	return AdapterType
}

// DSN строит строку подключения go-sql-driver/mysql из конфигурации
func (a *Adapter) DSN(cfg adapters.Config) string {
	if cfg.DSN != "" {
		return cfg.DSN
	}

	mc := mysql.NewConfig()
	mc.User = cfg.User
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	mc.Addr = fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	mc.DBName = cfg.Database
	mc.ParseTime = true
	if cfg.Timeout > 0 {
		mc.Timeout = cfg.Timeout
	}

	charset := cfg.Charset
	if charset == "" {
		charset = "utf8mb4"
	}
	mc.Params = map[string]string{"charset": charset}
	for k, v := range cfg.Params {
		mc.Params[k] = v
	}

	return mc.FormatDSN()
}

// Open открывает пул соединений MySQL
func (a *Adapter) Open(ctx context.Context, cfg adapters.Config) (*sql.DB, error) {
	db, err := sql.Open("mysql", a.DSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// Upsert строит INSERT ... ON DUPLICATE KEY UPDATE
func (a *Adapter) Upsert(table string, columns []string, unique, update string) string {
	if update == "" {
		update = fmt.Sprintf("%s=%s", unique, unique)
	}
	return fmt.Sprintf("INSERT INTO %s(%s) VALUES(%s) ON DUPLICATE KEY UPDATE %s",
		table,
		strings.Join(columns, ", "),
		base.Placeholders(len(columns)),
		update,
	)
}

// UpdateLimit - MySQL поддерживает UPDATE ... LIMIT
func (a *Adapter) UpdateLimit(limit int) (string, error) {
	return fmt.Sprintf("LIMIT %d", limit), nil
}

// RandomSample выбирает строки начиная со случайного значения ключа
func (a *Adapter) RandomSample(table, key string, limit int) string {
	return fmt.Sprintf("SELECT * FROM %s WHERE %s >= (RAND() * (SELECT MAX(%s) FROM %s)) LIMIT %d",
		table, key, key, table, limit)
}

// SampleTableDDL - тестовая таблица для seed генератора
func (a *Adapter) SampleTableDDL(table string) string {
	return fmt.Sprintf(`
		CREATE TABLE %s
		(
			id          int NOT NULL    AUTO_INCREMENT,
			name        varchar(64)     DEFAULT NULL,
			gender      varchar(1)      DEFAULT NULL,
			age         int             DEFAULT NULL,
			phone       varchar(20)     DEFAULT NULL,
			ssn         varchar(18)     DEFAULT NULL,
			job         varchar(200)    DEFAULT NULL,
			salary      int             DEFAULT NULL,
			company     varchar(200)    DEFAULT NULL,
			address     varchar(200)    DEFAULT NULL,
			mark        varchar(1)      DEFAULT NULL,
			PRIMARY KEY (id)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`, table)
}

// ErrorCode возвращает код ошибки MySQL сервера (0 если это не *mysql.MySQLError)
func ErrorCode(err error) uint16 {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number
	}
	return 0
}

// IsDuplicateKey сообщает о нарушении уникального индекса (ER_DUP_ENTRY)
func IsDuplicateKey(err error) bool {
	return ErrorCode(err) == 1062
}
