package commands

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ruslano69/sqlscan/pkg/checkpoint"
	"github.com/ruslano69/sqlscan/pkg/config"
	"github.com/ruslano69/sqlscan/pkg/scan"
	"github.com/ruslano69/sqlscan/pkg/seed"
	"github.com/ruslano69/sqlscan/pkg/sinks"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Sample("sqlite")
	cfg.Database.Database = filepath.Join(dir, "app.db")
	cfg.Scan.Rest = scan.NoRest
	cfg.Checkpoint = checkpoint.Config{Type: checkpoint.TypeFile, Path: filepath.Join(dir, "cp.json"), AutoSave: true}
	cfg.Sink = sinks.Config{Type: sinks.TypeLog}
	require.NoError(t, cfg.Validate())
	return cfg
}

func seedPeople(t *testing.T, cfg *config.Config, total int) {
	t.Helper()
	logger, _ := logtest.NewNullLogger()
	var out bytes.Buffer
	require.NoError(t, SeedTable(context.Background(), cfg, logger, seed.Options{Table: "people", Once: 100, Total: total, Seed: 1}, &out))
	assert.Contains(t, out.String(), "inserted")
}

func TestParseKey(t *testing.T) {
	assert.Nil(t, ParseKey(""))
	assert.Equal(t, int64(42), ParseKey("42"))
	assert.Equal(t, "a-1", ParseKey("a-1"))
}

func TestStats(t *testing.T) {
	cfg := testConfig(t)
	seedPeople(t, cfg, 250)

	logger, _ := logtest.NewNullLogger()
	var out bytes.Buffer
	ts, err := Stats(context.Background(), cfg, logger, "people", "", "id <= 10", &out)
	require.NoError(t, err)
	assert.Equal(t, int64(10), ts.Count)
	assert.EqualValues(t, 1, ts.Min)
	assert.EqualValues(t, 250, ts.Max)
	assert.Contains(t, out.String(), "people: count=10")
}

func TestScan_XLSXWithCheckpoint(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	seedPeople(t, cfg, 250)

	path := filepath.Join(t.TempDir(), "people.xlsx")
	cfg.Scan.Once = 100
	cfg.Sink = sinks.Config{Type: sinks.TypeXLSX, XLSX: sinks.XLSXConfig{Path: path}}

	logger, _ := logtest.NewNullLogger()
	var out bytes.Buffer
	stats, err := Scan(ctx, cfg, logger, ScanOptions{Table: "people", Columns: []string{"id", "name"}, Quiet: true, Out: &out})
	require.NoError(t, err)
	assert.Equal(t, int64(250), stats.Rows)
	assert.Equal(t, 3, stats.Chunks)
	assert.Contains(t, out.String(), "250 rows in 3 chunks")

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	rows, err := f.GetRows("people")
	require.NoError(t, err)
	f.Close()
	assert.Len(t, rows, 251)
	assert.Equal(t, []string{"id", "name"}, rows[0])

	// второй запуск видит завершенный чекпоинт
	cfg.Sink = sinks.Config{Type: sinks.TypeLog}
	stats, err = Scan(ctx, cfg, logger, ScanOptions{Table: "people", Quiet: true})
	require.NoError(t, err)
	assert.Equal(t, scan.StopCheckpointDone, stats.Reason)

	// --reset сканирует заново
	stats, err = Scan(ctx, cfg, logger, ScanOptions{Table: "people", Quiet: true, Reset: true})
	require.NoError(t, err)
	assert.Equal(t, int64(250), stats.Rows)
}

func TestScan_Sharded(t *testing.T) {
	cfg := testConfig(t)
	seedPeople(t, cfg, 300)
	cfg.Checkpoint = checkpoint.Config{}
	cfg.Scan.Once = 50

	logger, _ := logtest.NewNullLogger()
	stats, err := Scan(context.Background(), cfg, logger, ScanOptions{Table: "people", Shards: 3, Quiet: true, Where: "age >= 0"})
	require.NoError(t, err)
	assert.Equal(t, int64(300), stats.Rows)
}

func TestScan_BadSink(t *testing.T) {
	cfg := testConfig(t)
	seedPeople(t, cfg, 10)
	cfg.Sink.Type = "ftp"

	_, err := Scan(context.Background(), cfg, nil, ScanOptions{Table: "people"})
	assert.ErrorContains(t, err, "unknown sink type")
}
