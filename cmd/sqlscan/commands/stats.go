package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/ruslano69/sqlscan/pkg/config"
	"github.com/ruslano69/sqlscan/pkg/core/clause"
)

// TableStats - размер таблицы и границы ключа
type TableStats struct {
	Table string
	Key   string
	Count int64
	Min   any
	Max   any
}

// Stats возвращает COUNT/MIN/MAX по таблице; where - необязательный фильтр для COUNT
func Stats(ctx context.Context, cfg *config.Config, logger *logrus.Logger, table, key, where string, out io.Writer) (TableStats, error) {
	client, logger, err := open(ctx, cfg, logger)
	if err != nil {
		return TableStats{}, err
	}
	defer client.Close()

	if key == "" {
		key = "id"
	}
	ts := TableStats{Table: table, Key: key}

	var cond clause.Fragment
	if where != "" {
		cond = clause.Raw(where)
	}
	if ts.Count, err = client.Count(ctx, table, cond); err != nil {
		return ts, err
	}
	if ts.Min, err = client.Min(ctx, table, key); err != nil {
		return ts, err
	}
	if ts.Max, err = client.Max(ctx, table, key); err != nil {
		return ts, err
	}

	if out != nil {
		fmt.Fprintf(out, "%s: count=%d min(%s)=%v max(%s)=%v\n", table, ts.Count, key, ts.Min, key, ts.Max)
	}
	return ts, nil
}
