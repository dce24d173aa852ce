package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ruslano69/sqlscan/pkg/adapters"
)

func TestRegistered(t *testing.T) {
	assert.True(t, adapters.IsRegistered(AdapterType))
	a, err := adapters.Get(AdapterType)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", a.Name())
}

func TestDSN(t *testing.T) {
	a := &Adapter{}
	dsn := a.DSN(adapters.Config{Database: "app.db"})
	assert.Contains(t, dsn, "app.db?")
	assert.Contains(t, dsn, "busy_timeout%285000%29")

	assert.Equal(t, "x.db?mode=ro", a.DSN(adapters.Config{Database: "x.db?mode=ro"}))
	assert.Equal(t, "file:y.db", a.DSN(adapters.Config{DSN: "file:y.db"}))
}

func TestOpen_SampleTableAndUpsert(t *testing.T) {
	ctx := context.Background()
	a := &Adapter{}

	db, err := a.Open(ctx, adapters.Config{Database: filepath.Join(t.TempDir(), "t.db")})
	require.NoError(t, err)
	defer db.Close()

	_, err = db.ExecContext(ctx, a.SampleTableDDL("people"))
	require.NoError(t, err)

	upsert := a.Upsert("people", []string{"id", "name"}, "id", "name=excluded.name")
	_, err = db.ExecContext(ctx, upsert, 1, "first")
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, upsert, 1, "second")
	require.NoError(t, err)

	var name string
	require.NoError(t, db.QueryRowContext(ctx, "SELECT name FROM people WHERE id = 1").Scan(&name))
	assert.Equal(t, "second", name)

	var n int
	require.NoError(t, db.QueryRowContext(ctx, "SELECT count(*) FROM ("+a.RandomSample("people", "id", 5)+")").Scan(&n))
	assert.Equal(t, 1, n)

	_, err = a.UpdateLimit(1)
	assert.Error(t, err)
}
