// Package logging настраивает logrus логгер, который используют все пакеты
// sqlscan. Уровни: debug, info, warning, error и "success" (info + поле
// status=success) для отчетов о завершенных батчах.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
)

// Форматы вывода
const (
	FormatConsole = "console"
	FormatText    = "text"
	FormatJSON    = "json"
)

// Config - конфигурация логгера
type Config struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // console, text, json
	File   string `yaml:"file"`   // дополнительно писать в файл
}

// ConsoleFormatter - компактный однострочный формат с вызывающей функцией
type ConsoleFormatter struct {
	TimestampFormat string
}

// Format реализует logrus.Formatter
func (f *ConsoleFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	layout := f.TimestampFormat
	if layout == "" {
		layout = "2006-01-02 15:04:05.000"
	}

	level := strings.ToUpper(entry.Level.String())
	if status, ok := entry.Data["status"]; ok && status == "success" {
		level = "SUCCESS"
	}
	if len(level) > 4 {
		level = level[:4]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[%s] [%s] (%s) %s", entry.Time.Format(layout), level, caller(), entry.Message)

	keys := make([]string, 0, len(entry.Data))
	for k := range entry.Data {
		if k != "status" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, entry.Data[k])
	}
	b.WriteByte('\n')
	return []byte(b.String()), nil
}

// caller ищет первую функцию вне logrus и этого пакета
func caller() string {
	for i := 2; i < 20; i++ {
		pc, file, line, ok := runtime.Caller(i)
		if !ok {
			break
		}
		if strings.Contains(file, "sirupsen") || strings.Contains(file, "/logging/") {
			continue
		}
		name := runtime.FuncForPC(pc).Name()
		if idx := strings.LastIndex(name, "/"); idx >= 0 {
			name = name[idx+1:]
		}
		return fmt.Sprintf("%s:%s:%d", filepath.Base(file), name, line)
	}
	return "unknown:0"
}

// ParseLevel разбирает уровень логирования, по умолчанию info
func ParseLevel(level string) logrus.Level {
	switch strings.ToLower(level) {
	case "debug":
		return logrus.DebugLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

// New создает логгер по конфигурации
func New(cfg Config) (*logrus.Logger, error) {
	logger := logrus.New()
	logger.SetLevel(ParseLevel(cfg.Level))

	switch cfg.Format {
	case FormatJSON:
		logger.SetFormatter(&logrus.JSONFormatter{})
	case FormatText:
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "", FormatConsole:
		logger.SetFormatter(&ConsoleFormatter{})
	default:
		return nil, fmt.Errorf("unknown log format: %s", cfg.Format)
	}

	logger.SetOutput(os.Stdout)
	if cfg.File != "" {
		f, err := openLogFile(cfg.File)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file %s: %w", cfg.File, err)
		}
		logger.SetOutput(io.MultiWriter(os.Stdout, f))
	}

	return logger, nil
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
}

// Discard возвращает логгер, который ничего не пишет
func Discard() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// OrDiscard returns l, or a discarding logger when l is nil.
func OrDiscard(l logrus.FieldLogger) logrus.FieldLogger {
	if l == nil {
		return Discard()
	}
	return l
}

// Success пишет info запись с status=success
func Success(l logrus.FieldLogger, format string, args ...any) {
	l.WithField("status", "success").Infof(format, args...)
}
