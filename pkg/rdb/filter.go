package rdb

import (
	"context"

	"github.com/ruslano69/sqlscan/pkg/core/clause"
	"github.com/ruslano69/sqlscan/pkg/core/record"
)

// AddItems inserts only the items whose toCheck value is not yet present in
// table. One membership query partitions the batch; when nothing is new no
// insert statement is issued and 0 is returned. Running it twice with the
// same batch inserts everything the first time and nothing the second.
func (c *Client) AddItems(ctx context.Context, table string, items []record.Record, toCheck string) (int64, error) {
	if _, err := record.Uniform(items, toCheck); err != nil {
		return 0, err
	}

	values := make([]any, len(items))
	for i, item := range items {
		values[i] = item[toCheck]
	}

	missing, _, err := c.CheckValues(ctx, table, toCheck, values)
	if err != nil {
		return 0, err
	}
	if len(missing) == 0 {
		return 0, nil
	}

	fresh := make(map[string]struct{}, len(missing))
	for _, v := range missing {
		fresh[clause.Text(v)] = struct{}{}
	}

	subset := make([]record.Record, 0, len(missing))
	for _, item := range items {
		if _, ok := fresh[clause.Text(item[toCheck])]; ok {
			subset = append(subset, item)
		}
	}

	return c.AddMany(ctx, table, subset, "", toCheck)
}
