package rdb

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ruslano69/sqlscan/pkg/core/clause"
	"github.com/ruslano69/sqlscan/pkg/core/record"
	"github.com/ruslano69/sqlscan/pkg/scan"
)

var (
	// ErrNoCondition - UPDATE/EXISTS без условия не выполняются
	ErrNoCondition = errors.New("empty condition")

	// ErrNothingToUpdate - в записи нет колонок кроме ключа
	ErrNothingToUpdate = errors.New("no columns to update")
)

// CheckValues splits values by presence in table.field with one membership
// query. Both results keep input order and hold every value once. Values are
// compared by their text form.
func (c *Client) CheckValues(ctx context.Context, table, field string, values []any) (missing, existing []any, err error) {
	if len(values) == 0 {
		return nil, nil, nil
	}

	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s IN (%s)",
		field, table, field, clause.List(values, true, clause.DefaultSeparator))
	rows, err := c.QueryAll(ctx, "check_values", query)
	if err != nil {
		return nil, nil, err
	}

	found := make(map[string]struct{}, len(rows))
	for _, row := range rows {
		found[clause.Text(row[field])] = struct{}{}
	}

	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		key := clause.Text(v)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		if _, ok := found[key]; ok {
			existing = append(existing, v)
		} else {
			missing = append(missing, v)
		}
	}
	return missing, existing, nil
}

// Update выполняет UPDATE table SET set WHERE cond [LIMIT n].
// limit <= 0 обновляет все подходящие строки.
func (c *Client) Update(ctx context.Context, table string, set, cond clause.Fragment, limit int) (int64, error) {
	if cond.IsEmpty() {
		return 0, ErrNoCondition
	}
	if set.IsEmpty() {
		return 0, ErrNothingToUpdate
	}

	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s", table, set.Set(), cond.Where())
	if limit > 0 {
		tail, err := c.dialect.UpdateLimit(limit)
		if err != nil {
			return 0, err
		}
		query += " " + tail
	}
	return c.Exec(ctx, "update", query)
}

// UpdateSome обновляет строки, у которых field входит в values
func (c *Client) UpdateSome(ctx context.Context, table string, set clause.Fragment, field string, values []any) (int64, error) {
	if len(values) == 0 {
		return 0, nil
	}
	if set.IsEmpty() {
		return 0, ErrNothingToUpdate
	}

	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s IN (%s)",
		table, set.Set(), field, clause.List(values, true, clause.DefaultSeparator))
	return c.Exec(ctx, "update_some", query)
}

// QuerySome выбирает columns строк, у которых field входит в values.
// Пустой columns = "*".
func (c *Client) QuerySome(ctx context.Context, table string, columns []string, field string, values []any) ([]record.Record, error) {
	if len(values) == 0 {
		return nil, nil
	}

	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s IN (%s)",
		pick(columns), table, field, clause.List(values, true, clause.DefaultSeparator))
	return c.QueryAll(ctx, "query_some", query)
}

func pick(columns []string) string {
	if len(columns) == 0 {
		return "*"
	}
	return clause.Strings(columns, false, clause.DefaultSeparator)
}

// AddOne inserts one record, updating it when unique already matches.
// An empty update leaves the existing row untouched.
func (c *Client) AddOne(ctx context.Context, table string, item record.Record, update, unique string) (int64, error) {
	if len(item) == 0 {
		return 0, record.ErrEmptyBatch
	}
	if unique == "" {
		unique = "id"
	}

	columns := record.Columns(item)
	query := c.dialect.Upsert(table, columns, unique, update)
	return c.Exec(ctx, "add_one", query, item.Values(columns)...)
}

// AddMany inserts a batch with the same upsert statement executed once per
// record. Every record must carry the field set of the first one.
func (c *Client) AddMany(ctx context.Context, table string, items []record.Record, update, unique string) (int64, error) {
	columns, err := record.Uniform(items, "")
	if err != nil {
		return 0, err
	}
	if unique == "" {
		unique = "id"
	}

	args := make([][]any, len(items))
	for i, item := range items {
		args[i] = item.Values(columns)
	}

	query := c.dialect.Upsert(table, columns, unique, update)
	return c.ExecMany(ctx, "add_many", query, args)
}

// Exists проверяет, есть ли строка, удовлетворяющая cond
func (c *Client) Exists(ctx context.Context, table string, cond clause.Fragment) (bool, error) {
	if cond.IsEmpty() {
		return false, ErrNoCondition
	}

	query := c.dialect.SelectLimit("1", table, cond.Where(), "", 1)
	row, err := c.QueryOne(ctx, "exists", query)
	if err != nil {
		return false, err
	}
	return row != nil, nil
}

// UpdateOne updates the row whose depend column equals item[depend] with the
// remaining fields of item, as bound parameters. item is not modified.
func (c *Client) UpdateOne(ctx context.Context, table string, item record.Record, depend string) (int64, error) {
	key, ok := item[depend]
	if !ok {
		return 0, fmt.Errorf("%w: %s", record.ErrMissingField, depend)
	}

	columns := record.Without(record.Columns(item), depend)
	if len(columns) == 0 {
		return 0, ErrNothingToUpdate
	}

	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s=?", table, setPlaceholders(columns), depend)
	args := append(item.Values(columns), key)
	return c.Exec(ctx, "update_one", query, args...)
}

// UpdateMany is UpdateOne for a batch, executed in one transaction.
func (c *Client) UpdateMany(ctx context.Context, table string, items []record.Record, depend string) (int64, error) {
	all, err := record.Uniform(items, depend)
	if err != nil {
		return 0, err
	}

	columns := record.Without(all, depend)
	if len(columns) == 0 {
		return 0, ErrNothingToUpdate
	}

	args := make([][]any, len(items))
	for i, item := range items {
		args[i] = append(item.Values(columns), item[depend])
	}

	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s=?", table, setPlaceholders(columns), depend)
	return c.ExecMany(ctx, "update_many", query, args)
}

func setPlaceholders(columns []string) string {
	parts := make([]string, len(columns))
	for i, col := range columns {
		parts[i] = col + "=?"
	}
	return strings.Join(parts, ", ")
}

// QuickUpdate обновляет пакет записей одним выражением:
//
//	UPDATE t SET
//		a = CASE id WHEN ? THEN ? WHEN ? THEN ? END,
//		b = CASE id WHEN ? THEN ? WHEN ? THEN ? END
//	WHERE id IN ('1', '2')
func (c *Client) QuickUpdate(ctx context.Context, table string, items []record.Record, depend string) (int64, error) {
	all, err := record.Uniform(items, depend)
	if err != nil {
		return 0, err
	}

	columns := record.Without(all, depend)
	if len(columns) == 0 {
		return 0, ErrNothingToUpdate
	}

	var b strings.Builder
	fmt.Fprintf(&b, "UPDATE %s SET\n", table)

	args := make([]any, 0, len(items)*len(columns)*2)
	for i, col := range columns {
		fmt.Fprintf(&b, "\t%s = CASE %s", col, depend)
		for _, item := range items {
			b.WriteString(" WHEN ? THEN ?")
			args = append(args, item[depend], item[col])
		}
		b.WriteString(" END")
		if i < len(columns)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}

	keys := make([]any, len(items))
	for i, item := range items {
		keys[i] = item[depend]
	}
	fmt.Fprintf(&b, "WHERE %s IN (%s)", depend, clause.List(keys, true, clause.DefaultSeparator))

	return c.Exec(ctx, "quick_update", b.String(), args...)
}

// Random возвращает limit случайных строк
func (c *Client) Random(ctx context.Context, table string, limit int) ([]record.Record, error) {
	if limit <= 0 {
		limit = 1
	}
	return c.QueryAll(ctx, "random", c.dialect.RandomSample(table, "id", limit))
}

// Query выбирает pick колонок строк, удовлетворяющих where.
// limit <= 0 - без ограничения, пустой where - все строки.
func (c *Client) Query(ctx context.Context, table, pick string, limit int, where clause.Fragment) ([]record.Record, error) {
	if pick == "" {
		pick = "*"
	}
	query := c.dialect.SelectLimit(pick, table, where.Where(), "", limit)
	return c.QueryAll(ctx, "query", query)
}

// Count возвращает количество строк, удовлетворяющих where
func (c *Client) Count(ctx context.Context, table string, where clause.Fragment) (int64, error) {
	query := "SELECT COUNT(1) FROM " + table
	if !where.IsEmpty() {
		query += " WHERE " + where.Where()
	}

	v, err := c.queryScalar(ctx, "query_count", query)
	if err != nil {
		return 0, err
	}
	n, ok := record.AsInt64(v)
	if !ok {
		return 0, fmt.Errorf("unexpected count value %v (%T)", v, v)
	}
	return n, nil
}

// Min возвращает MIN(field); nil для пустой таблицы
func (c *Client) Min(ctx context.Context, table, field string) (any, error) {
	return c.queryScalar(ctx, "get_min", fmt.Sprintf("SELECT MIN(%s) FROM %s", field, table))
}

// Max возвращает MAX(field); nil для пустой таблицы
func (c *Client) Max(ctx context.Context, table, field string) (any, error) {
	return c.queryScalar(ctx, "get_max", fmt.Sprintf("SELECT MAX(%s) FROM %s", field, table))
}

// DeleteOne удаляет строки, у которых field равен value
func (c *Client) DeleteOne(ctx context.Context, table, field string, value any) (int64, error) {
	query := fmt.Sprintf("DELETE FROM %s WHERE %s='%s'", table, field, clause.Text(value))
	return c.Exec(ctx, "delete_one", query)
}

// DeleteMany удаляет строки, у которых field входит в values
func (c *Client) DeleteMany(ctx context.Context, table, field string, values []any) (int64, error) {
	if len(values) == 0 {
		return 0, nil
	}
	query := fmt.Sprintf("DELETE FROM %s WHERE %s IN (%s)",
		table, field, clause.List(values, true, clause.DefaultSeparator))
	return c.Exec(ctx, "delete_many", query)
}

// Scan проходит таблицу чанками, см. scan.Run
func (c *Client) Scan(ctx context.Context, opts scan.Options) (scan.Stats, error) {
	if opts.Logger == nil {
		opts.Logger = c.logger
	}
	return scan.Run(ctx, c, opts)
}
