package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, logrus.WarnLevel, ParseLevel("warning"))
	assert.Equal(t, logrus.ErrorLevel, ParseLevel("error"))
	assert.Equal(t, logrus.InfoLevel, ParseLevel("bogus"))
}

func TestNew_UnknownFormat(t *testing.T) {
	_, err := New(Config{Format: "xml"})
	assert.Error(t, err)
}

func TestConsoleFormatter_Success(t *testing.T) {
	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)
	logger.SetFormatter(&ConsoleFormatter{})

	Success(logger, "inserted %d total %d", 1000, 3000)

	line := buf.String()
	assert.Contains(t, line, "[SUCC]")
	assert.Contains(t, line, "inserted 1000 total 3000")
	assert.NotContains(t, line, "status=")
}

func TestConsoleFormatter_Fields(t *testing.T) {
	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)
	logger.SetFormatter(&ConsoleFormatter{})

	logger.WithFields(logrus.Fields{"op": "scan", "got": 10}).Warn("empty")
	assert.Contains(t, buf.String(), "[WARN]")
	assert.Contains(t, buf.String(), "empty got=10 op=scan")
}

func TestNew_JSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "sqlscan.log")
	logger, err := New(Config{Level: "info", Format: FormatJSON, File: path})
	require.NoError(t, err)

	logger.WithField("table", "users").Info("done")

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(data), &entry))
	assert.Equal(t, "done", entry["msg"])
	assert.Equal(t, "users", entry["table"])
}
