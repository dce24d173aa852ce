// Package scan iterates a table in ordered chunks with keyset pagination.
//
// Each query reads at most Once rows with the sort key in [start, end]:
//
//	SELECT cols FROM t WHERE k >= ? AND k <= ? [AND (extra)] ORDER BY k LIMIT n
//
// The first query uses ">=", every following one uses ">" with start moved to
// the last key of the previous chunk, so no row is read twice. A short chunk
// ends the scan, as does reaching end exactly, an empty result, the query
// ceiling or a cancelled context.
package scan

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ruslano69/sqlscan/pkg/checkpoint"
	"github.com/ruslano69/sqlscan/pkg/core/record"
	"github.com/ruslano69/sqlscan/pkg/logging"
	"github.com/ruslano69/sqlscan/pkg/metrics"
)

// StopReason - почему скан завершился без ошибки
type StopReason string

const (
	// StopExhausted - получен неполный чанк, строк больше нет
	StopExhausted StopReason = "exhausted"
	// StopBoundary - последний ключ чанка равен end
	StopBoundary StopReason = "boundary"
	// StopEmpty - запрос вернул ноль строк (или таблица пуста)
	StopEmpty StopReason = "empty"
	// StopMaxQueries - достигнут MaxQueries
	StopMaxQueries StopReason = "max_queries"
	// StopCheckpointDone - чекпоинт уже отмечен завершенным
	StopCheckpointDone StopReason = "checkpoint_done"
)

// Stats - итог скана
type Stats struct {
	Queries int
	Chunks  int
	Rows    int64
	LastKey any
	Reason  StopReason
	Resumed bool
}

// Run scans opts.Table and hands every chunk to opts.Handler in ascending key
// order. The returned error is non-nil only when a chunk query fails, the
// handler fails, the context is cancelled or the checkpoint store fails.
func Run(ctx context.Context, src Source, opts Options) (Stats, error) {
	var stats Stats

	opts, err := opts.withDefaults()
	if err != nil {
		return stats, err
	}

	logger := logging.OrDiscard(opts.Logger).WithFields(logrus.Fields{
		"table": opts.Table,
		"key":   opts.SortKey,
	})
	handler := opts.Handler
	if handler == nil {
		handler = LogHandler(logger)
	}

	// INIT: чекпоинт
	var cp *checkpoint.Checkpoint
	start := opts.Start
	if opts.Checkpoint != nil {
		cp, err = opts.Checkpoint.Load(ctx, opts.CheckpointID)
		if err != nil {
			return stats, fmt.Errorf("load checkpoint %s: %w", opts.CheckpointID, err)
		}
		if cp != nil && cp.Done {
			logger.Infof("checkpoint %s is done, nothing to scan", opts.CheckpointID)
			stats.Reason = StopCheckpointDone
			return stats, nil
		}
		if cp != nil && (start == nil || opts.shard) {
			key, ok, err := cp.Key()
			if err != nil {
				return stats, fmt.Errorf("decode checkpoint %s: %w", opts.CheckpointID, err)
			}
			if ok {
				start = key
				stats.Resumed = true
				logger.Infof("resuming after %v", key)
			}
		}
		if cp == nil {
			cp = &checkpoint.Checkpoint{ID: opts.CheckpointID, Table: opts.Table, SortKey: opts.SortKey}
		}
	}

	// RANGE_RESOLVED
	if start == nil {
		if start, err = src.Min(ctx, opts.Table, opts.SortKey); err != nil {
			return stats, fmt.Errorf("resolve start of %s: %w", opts.Table, err)
		}
	}
	end := opts.End
	if end == nil {
		if end, err = src.Max(ctx, opts.Table, opts.SortKey); err != nil {
			return stats, fmt.Errorf("resolve end of %s: %w", opts.Table, err)
		}
	}
	if start == nil || end == nil {
		logger.Warn("table is empty")
		stats.Reason = StopEmpty
		return stats, finish(ctx, opts, cp, true)
	}

	dialect := src.Dialect()
	first := !stats.Resumed
	for {
		// QUERYING
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		op := ">"
		if first {
			op = ">="
		}
		where := fmt.Sprintf("%s %s ? AND %s <= ?", opts.SortKey, op, opts.SortKey)
		if !opts.Where.IsEmpty() {
			where += " AND (" + opts.Where.Where() + ")"
		}
		query := dialect.SelectLimit(opts.pick(), opts.Table, where, opts.SortKey, opts.Once)

		rows, err := src.Fetch(ctx, query, start, end)
		stats.Queries++
		if err != nil {
			logger.WithError(err).Error("chunk query failed")
			saveError(ctx, opts, cp, err)
			return stats, fmt.Errorf("scan %s: %w", opts.Table, err)
		}
		if len(rows) == 0 {
			logger.WithField("start", start).Warn("query returned no rows")
			stats.Reason = StopEmpty
			return stats, finish(ctx, opts, cp, true)
		}

		firstKey, ok := rows[0][opts.SortKey]
		if !ok {
			return stats, fmt.Errorf("scan %s: sort key %s missing from result rows", opts.Table, opts.SortKey)
		}
		lastKey := rows[len(rows)-1][opts.SortKey]

		if !opts.Quiet {
			logger.Infof("%s%s%v  want %d got %d  from %v to %v",
				opts.SortKey, op, start, opts.Once, len(rows), firstKey, lastKey)
		}

		// DISPATCHING
		chunk := Chunk{Seq: stats.Chunks + 1, Rows: rows, First: firstKey, Last: lastKey}
		if err := handler(ctx, chunk); err != nil {
			saveError(ctx, opts, cp, err)
			return stats, fmt.Errorf("scan %s: handler failed on chunk %d: %w", opts.Table, chunk.Seq, err)
		}

		stats.Chunks++
		stats.Rows += int64(len(rows))
		stats.LastKey = lastKey
		metrics.ScanChunksTotal.WithLabelValues(opts.Table).Inc()
		metrics.ScanRowsTotal.WithLabelValues(opts.Table).Add(float64(len(rows)))

		if cp != nil {
			cp.Chunks++
			cp.Rows += int64(len(rows))
			cp.LastError = ""
			if err := cp.SetKey(lastKey); err != nil {
				return stats, fmt.Errorf("encode checkpoint key: %w", err)
			}
		}

		// ADVANCING
		if len(rows) < opts.Once {
			stats.Reason = StopExhausted
			return stats, finish(ctx, opts, cp, true)
		}
		start = lastKey
		if record.SameValue(start, end) {
			stats.Reason = StopBoundary
			return stats, finish(ctx, opts, cp, true)
		}
		if opts.MaxQueries > 0 && stats.Queries >= opts.MaxQueries {
			stats.Reason = StopMaxQueries
			return stats, finish(ctx, opts, cp, false)
		}
		if err := save(ctx, opts, cp); err != nil {
			return stats, err
		}

		first = false
		if err := pause(ctx, opts.Rest); err != nil {
			return stats, err
		}
	}
}

func save(ctx context.Context, opts Options, cp *checkpoint.Checkpoint) error {
	if cp == nil {
		return nil
	}
	if err := opts.Checkpoint.Save(ctx, cp); err != nil {
		return fmt.Errorf("save checkpoint %s: %w", cp.ID, err)
	}
	return nil
}

// finish сохраняет итоговый чекпоинт; done отмечает, что диапазон пройден
func finish(ctx context.Context, opts Options, cp *checkpoint.Checkpoint, done bool) error {
	if cp == nil {
		return nil
	}
	cp.Done = done
	return save(ctx, opts, cp)
}

// saveError записывает ошибку в чекпоинт; ошибка самого сохранения игнорируется
func saveError(ctx context.Context, opts Options, cp *checkpoint.Checkpoint, err error) {
	if cp == nil {
		return
	}
	cp.LastError = err.Error()
	_ = opts.Checkpoint.Save(context.WithoutCancel(ctx), cp)
}

// pause ждет d или отмены контекста
func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
