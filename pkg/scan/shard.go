package scan

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/ruslano69/sqlscan/pkg/core/record"
)

// Shard - непересекающийся поддиапазон целочисленного ключа [Start, End]
type Shard struct {
	Index int
	Start int64
	End   int64
}

// Split делит [lo, hi] на n непересекающихся поддиапазонов почти равной ширины.
// Если ключей меньше чем n, шардов будет меньше.
func Split(lo, hi int64, n int) []Shard {
	if hi < lo || n <= 0 {
		return nil
	}

	width := hi - lo + 1
	if int64(n) > width {
		n = int(width)
	}

	step := width / int64(n)
	extra := width % int64(n)

	shards := make([]Shard, 0, n)
	start := lo
	for i := 0; i < n; i++ {
		size := step
		if int64(i) < extra {
			size++
		}
		shards = append(shards, Shard{Index: i, Start: start, End: start + size - 1})
		start += size
	}
	return shards
}

// RunSharded splits the integer key range of opts into n shards and scans
// them concurrently on a worker pool of n goroutines. Every shard is an
// independent Run with its own checkpoint id ("<id>#<index>"); the handler
// must be safe for concurrent use. Errors of all shards are joined.
func RunSharded(ctx context.Context, src Source, opts Options, n int) ([]Stats, error) {
	opts, err := opts.withDefaults()
	if err != nil {
		return nil, err
	}
	if n <= 0 {
		return nil, fmt.Errorf("scan: shard count must be > 0")
	}

	lo, hi, err := intRange(ctx, src, opts)
	if err != nil {
		return nil, err
	}
	if lo == nil || hi == nil {
		return nil, nil
	}

	shards := Split(*lo, *hi, n)
	if len(shards) == 0 {
		return nil, nil
	}

	workers, err := ants.NewPool(len(shards))
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}
	defer workers.Release()

	stats := make([]Stats, len(shards))
	errs := make([]error, len(shards))

	var wg sync.WaitGroup
	for _, sh := range shards {
		o := opts
		o.Start, o.End = sh.Start, sh.End
		o.shard = true
		o.CheckpointID = fmt.Sprintf("%s#%d", opts.CheckpointID, sh.Index)
		if o.Logger != nil {
			o.Logger = o.Logger.WithField("shard", sh.Index)
		}

		wg.Add(1)
		err := workers.Submit(func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					errs[sh.Index] = fmt.Errorf("shard %d: panic: %v", sh.Index, r)
				}
			}()

			st, err := Run(ctx, src, o)
			stats[sh.Index] = st
			if err != nil {
				errs[sh.Index] = fmt.Errorf("shard %d [%d..%d]: %w", sh.Index, sh.Start, sh.End, err)
			}
		})
		if err != nil {
			wg.Done()
			errs[sh.Index] = fmt.Errorf("shard %d: submit: %w", sh.Index, err)
		}
	}
	wg.Wait()

	return stats, errors.Join(errs...)
}

// intRange возвращает границы из opts или MIN/MAX таблицы; nil для пустой таблицы
func intRange(ctx context.Context, src Source, opts Options) (*int64, *int64, error) {
	resolve := func(v any, agg func(context.Context, string, string) (any, error)) (*int64, error) {
		if v == nil {
			var err error
			if v, err = agg(ctx, opts.Table, opts.SortKey); err != nil {
				return nil, err
			}
			if v == nil {
				return nil, nil
			}
		}
		n, ok := record.AsInt64(v)
		if !ok {
			return nil, fmt.Errorf("scan: sharding needs an integer sort key, got %T", v)
		}
		return &n, nil
	}

	lo, err := resolve(opts.Start, src.Min)
	if err != nil {
		return nil, nil, err
	}
	hi, err := resolve(opts.End, src.Max)
	if err != nil {
		return nil, nil, err
	}
	return lo, hi, nil
}

// Total суммирует статистику шардов
func Total(stats []Stats) Stats {
	var total Stats
	for _, s := range stats {
		total.Queries += s.Queries
		total.Chunks += s.Chunks
		total.Rows += s.Rows
	}
	return total
}
