package scan

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ruslano69/sqlscan/pkg/adapters"
	"github.com/ruslano69/sqlscan/pkg/checkpoint"
	"github.com/ruslano69/sqlscan/pkg/core/clause"
	"github.com/ruslano69/sqlscan/pkg/core/record"
)

const (
	// DefaultSortKey - колонка сортировки по умолчанию
	DefaultSortKey = "id"
	// DefaultOnce - размер чанка по умолчанию
	DefaultOnce = 1000
	// DefaultRest - пауза между чанками по умолчанию
	DefaultRest = 50 * time.Millisecond
	// NoRest отключает паузу между чанками
	NoRest time.Duration = -1
)

// Source - то, что сканер требует от базы данных
type Source interface {
	Dialect() adapters.Dialect
	Min(ctx context.Context, table, field string) (any, error)
	Max(ctx context.Context, table, field string) (any, error)
	Fetch(ctx context.Context, query string, args ...any) ([]record.Record, error)
}

// Chunk - одна порция строк, упорядоченных по ключу сортировки
type Chunk struct {
	Seq   int // номер чанка в скане, с 1
	Rows  []record.Record
	First any // ключ первой строки
	Last  any // ключ последней строки
}

// ChunkFunc обрабатывает чанк. Ошибка прерывает скан.
type ChunkFunc func(ctx context.Context, chunk Chunk) error

// Options - параметры скана
type Options struct {
	Table   string
	SortKey string   // по умолчанию "id"
	Columns []string // пусто = "*"; должен включать SortKey

	// Start/End - границы ключа включительно. nil = MIN/MAX по таблице.
	Start any
	End   any

	// Where - дополнительное условие, добавляется как AND (...)
	Where clause.Fragment

	Once       int           // размер чанка, по умолчанию 1000
	Rest       time.Duration // пауза между чанками, 0 = 50ms, NoRest = без паузы
	MaxQueries int           // 0 = без ограничения

	Handler ChunkFunc // по умолчанию каждая строка пишется в лог
	Quiet   bool      // не писать строку лога на каждый чанк
	Logger  logrus.FieldLogger

	// Checkpoint сохраняет последний ключ после каждого чанка. Скан без
	// явного Start продолжает после сохраненного ключа.
	Checkpoint   checkpoint.Store
	CheckpointID string // по умолчанию "<table>:<sort_key>"

	// shard: Start задан RunSharded и уступает сохраненному ключу
	shard bool
}

func (o Options) withDefaults() (Options, error) {
	if o.Table == "" {
		return o, fmt.Errorf("scan: table is required")
	}
	if o.SortKey == "" {
		o.SortKey = DefaultSortKey
	}
	if o.Once <= 0 {
		o.Once = DefaultOnce
	}
	if o.Rest == 0 {
		o.Rest = DefaultRest
	}
	if o.MaxQueries < 0 {
		return o, fmt.Errorf("scan: max queries must be >= 0")
	}
	if len(o.Columns) > 0 && !o.projects(o.SortKey) {
		return o, fmt.Errorf("scan: sort key %s is not among columns %s", o.SortKey, strings.Join(o.Columns, ", "))
	}
	if o.CheckpointID == "" {
		o.CheckpointID = o.Table + ":" + o.SortKey
	}
	return o, nil
}

func (o Options) projects(column string) bool {
	for _, c := range o.Columns {
		if c == column || c == "*" {
			return true
		}
	}
	return false
}

func (o Options) pick() string {
	if len(o.Columns) == 0 {
		return "*"
	}
	return strings.Join(o.Columns, ", ")
}

// LogHandler пишет каждую строку чанка в лог
func LogHandler(l logrus.FieldLogger) ChunkFunc {
	return func(_ context.Context, chunk Chunk) error {
		for _, row := range chunk.Rows {
			l.Info(row)
		}
		return nil
	}
}
