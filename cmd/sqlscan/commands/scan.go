package commands

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/ruslano69/sqlscan/pkg/checkpoint"
	"github.com/ruslano69/sqlscan/pkg/config"
	"github.com/ruslano69/sqlscan/pkg/core/clause"
	"github.com/ruslano69/sqlscan/pkg/scan"
	"github.com/ruslano69/sqlscan/pkg/sinks"
)

// ScanOptions holds options for the scan command
type ScanOptions struct {
	Table   string
	Columns []string
	Where   string
	Start   string // пусто = MIN(sort_key)
	End     string // пусто = MAX(sort_key)
	RunID   string
	Shards  int
	Reset   bool // удалить чекпоинт перед сканом
	Quiet   bool
	Out     io.Writer
}

// ParseKey превращает значение флага в ключ: целые числа как int64,
// остальное как строка
func ParseKey(s string) any {
	if s == "" {
		return nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	return s
}

// Scan сканирует таблицу и отдает чанки в sink из конфигурации
func Scan(ctx context.Context, cfg *config.Config, logger *logrus.Logger, opts ScanOptions) (scan.Stats, error) {
	client, logger, err := open(ctx, cfg, logger)
	if err != nil {
		return scan.Stats{}, err
	}
	defer client.Close()

	store, err := checkpoint.Open(cfg.Checkpoint)
	if err != nil {
		return scan.Stats{}, err
	}
	defer checkpoint.Close(store)

	sink, err := sinks.New(ctx, cfg.Sink, logger)
	if err != nil {
		return scan.Stats{}, fmt.Errorf("failed to create sink: %w", err)
	}

	so := cfg.ScanOptions(opts.Table)
	so.Columns = opts.Columns
	so.Start = ParseKey(opts.Start)
	so.End = ParseKey(opts.End)
	so.Quiet = opts.Quiet
	so.Logger = logger
	so.Handler = sinks.Handler(sink, opts.Table, opts.RunID)
	if opts.Where != "" {
		so.Where = clause.Raw(opts.Where)
	}
	so.Checkpoint = store

	shards := opts.Shards
	if shards == 0 {
		shards = cfg.Scan.Shards
	}

	if opts.Reset && store != nil {
		if err := resetCheckpoints(ctx, store, so, shards); err != nil {
			sink.Close()
			return scan.Stats{}, err
		}
	}

	var stats scan.Stats
	if shards > 1 {
		var all []scan.Stats
		all, err = scan.RunSharded(ctx, client, so, shards)
		stats = scan.Total(all)
	} else {
		stats, err = client.Scan(ctx, so)
	}

	if cerr := sink.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("failed to close sink: %w", cerr)
	}
	if err != nil {
		return stats, err
	}

	if opts.Out != nil {
		fmt.Fprintf(opts.Out, "✓ %s: %d rows in %d chunks (%d queries), stop: %s\n",
			opts.Table, stats.Rows, stats.Chunks, stats.Queries, stats.Reason)
	}
	return stats, nil
}

// resetCheckpoints удаляет чекпоинт скана и чекпоинты его шардов
func resetCheckpoints(ctx context.Context, store checkpoint.Store, o scan.Options, shards int) error {
	key := o.SortKey
	if key == "" {
		key = scan.DefaultSortKey
	}
	id := o.Table + ":" + key

	ids := []string{id}
	for i := 0; i < shards; i++ {
		ids = append(ids, fmt.Sprintf("%s#%d", id, i))
	}
	for _, id := range ids {
		if err := store.Reset(ctx, id); err != nil {
			return fmt.Errorf("failed to reset checkpoint %s: %w", id, err)
		}
	}
	return nil
}
