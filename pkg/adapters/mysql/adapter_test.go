package mysql

import (
	"fmt"
	"strings"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ruslano69/sqlscan/pkg/adapters"
)

func TestRegistered(t *testing.T) {
	a, err := adapters.Get(AdapterType)
	require.NoError(t, err)
	assert.Equal(t, "mysql", a.Name())
}

func TestDSN_FromFields(t *testing.T) {
	a := &Adapter{}
	cfg := adapters.DefaultConfig()
	cfg.User = "root"
	cfg.Password = "secret"
	cfg.Database = "shop"

	dsn := a.DSN(cfg)
	parsed, err := mysql.ParseDSN(dsn)
	require.NoError(t, err)
	assert.Equal(t, "root", parsed.User)
	assert.Equal(t, "secret", parsed.Passwd)
	assert.Equal(t, "localhost:3306", parsed.Addr)
	assert.Equal(t, "shop", parsed.DBName)
	assert.True(t, parsed.ParseTime)
	assert.Contains(t, dsn, "charset=utf8mb4")
}

func TestDSN_Explicit(t *testing.T) {
	a := &Adapter{}
	assert.Equal(t, "u:p@tcp(db:3306)/x", a.DSN(adapters.Config{DSN: "u:p@tcp(db:3306)/x"}))
}

func TestUpsert(t *testing.T) {
	a := &Adapter{}
	assert.Equal(t,
		"INSERT INTO users(id, name) VALUES(?, ?) ON DUPLICATE KEY UPDATE id=id",
		a.Upsert("users", []string{"id", "name"}, "id", ""))
	assert.Equal(t,
		"INSERT INTO users(id, name) VALUES(?, ?) ON DUPLICATE KEY UPDATE name=VALUES(name)",
		a.Upsert("users", []string{"id", "name"}, "id", "name=VALUES(name)"))
}

func TestDialect(t *testing.T) {
	a := &Adapter{}
	assert.Equal(t, "select ? from t", a.Rebind("select ? from t"))

	suffix, err := a.UpdateLimit(5)
	require.NoError(t, err)
	assert.Equal(t, "LIMIT 5", suffix)

	assert.Contains(t, a.RandomSample("users", "id", 3), "RAND()")
	assert.True(t, strings.Contains(a.SampleTableDDL("people"), "CREATE TABLE people"))
}

func TestErrorCode(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})
	assert.Equal(t, uint16(1062), ErrorCode(err))
	assert.True(t, IsDuplicateKey(err))
	assert.Equal(t, uint16(0), ErrorCode(fmt.Errorf("plain")))
}
