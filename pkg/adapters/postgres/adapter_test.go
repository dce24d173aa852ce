package postgres

import (
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ruslano69/sqlscan/pkg/adapters"
)

func TestRegistered(t *testing.T) {
	for _, name := range []string{"postgres", "postgresql"} {
		a, err := adapters.Get(name)
		require.NoError(t, err)
		assert.Equal(t, AdapterType, a.Name())
	}
}

func TestDSN_ParsedByPgx(t *testing.T) {
	a := NewAdapter()
	dsn := a.DSN(adapters.Config{
		Host:     "db.local",
		User:     "scan",
		Password: "p@ss word",
		Database: "warehouse",
		Params:   map[string]string{"application_name": "sqlscan"},
	})

	cc, err := pgx.ParseConfig(dsn)
	require.NoError(t, err)
	assert.Equal(t, "db.local", cc.Host)
	assert.Equal(t, uint16(5432), cc.Port)
	assert.Equal(t, "scan", cc.User)
	assert.Equal(t, "p@ss word", cc.Password)
	assert.Equal(t, "warehouse", cc.Database)
	assert.Equal(t, "sqlscan", cc.RuntimeParams["application_name"])
}

func TestRebindDollar(t *testing.T) {
	a := NewAdapter()
	assert.Equal(t, "update t set a=$1 where id=$2", a.Rebind("update t set a=? where id=?"))
}

func TestUpsertAndLimit(t *testing.T) {
	a := NewAdapter()
	assert.Equal(t,
		"INSERT INTO t(code, v) VALUES(?, ?) ON CONFLICT(code) DO UPDATE SET code=excluded.code",
		a.Upsert("t", []string{"code", "v"}, "code", ""))

	_, err := a.UpdateLimit(3)
	assert.Error(t, err)
	assert.Equal(t, "SELECT * FROM t ORDER BY random() LIMIT 2", a.RandomSample("t", "id", 2))
}
