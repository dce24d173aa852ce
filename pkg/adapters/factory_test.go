package adapters_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ruslano69/sqlscan/pkg/adapters"
	"github.com/ruslano69/sqlscan/pkg/adapters/base"
	_ "github.com/ruslano69/sqlscan/pkg/adapters/mssql"
	_ "github.com/ruslano69/sqlscan/pkg/adapters/mysql"
	_ "github.com/ruslano69/sqlscan/pkg/adapters/postgres"
	_ "github.com/ruslano69/sqlscan/pkg/adapters/sqlite"
)

type stubAdapter struct {
	base.StandardSQL
}

func (stubAdapter) Name() string { return "stub" }

func (stubAdapter) Open(context.Context, adapters.Config) (*sql.DB, error) { return nil, nil }

func (stubAdapter) Upsert(string, []string, string, string) string { return "" }

func (stubAdapter) UpdateLimit(int) (string, error) { return "", nil }

func (stubAdapter) RandomSample(string, string, int) string { return "" }

func (stubAdapter) SampleTableDDL(string) string { return "" }

func TestGlobalFactory_Registered(t *testing.T) {
	for _, name := range []string{"mysql", "postgres", "postgresql", "sqlite", "mssql"} {
		a, err := adapters.Get(name)
		require.NoError(t, err, name)
		assert.NotEmpty(t, a.Name())
	}
	assert.Subset(t, adapters.Types(), []string{"mssql", "mysql", "postgres", "sqlite"})
}

func TestGlobalFactory_Unknown(t *testing.T) {
	_, err := adapters.Get("oracle")
	assert.ErrorContains(t, err, "unknown database type: oracle")
}

func TestFactory_RegisterUnregister(t *testing.T) {
	f := adapters.NewFactory()
	assert.Empty(t, f.Types())

	f.Register("stub", func() adapters.Adapter { return stubAdapter{} })
	assert.True(t, f.IsRegistered("stub"))

	a, err := f.Get("stub")
	require.NoError(t, err)
	assert.Equal(t, "stub", a.Name())

	f.Unregister("stub")
	assert.False(t, f.IsRegistered("stub"))
}

func TestDefaultConfig(t *testing.T) {
	cfg := adapters.DefaultConfig()
	assert.Equal(t, 4, cfg.MaxConnections)
	assert.True(t, cfg.Blocking)
	assert.Equal(t, "utf8mb4", cfg.Charset)
}
