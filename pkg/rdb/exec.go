package rdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ruslano69/sqlscan/pkg/core/record"
	"github.com/ruslano69/sqlscan/pkg/metrics"
)

// ErrExecution - единый признак неудачного выражения. Любая ошибка драйвера,
// сети, SQL или commit превращается в *ExecError, для которого
// errors.Is(err, ErrExecution) == true.
var ErrExecution = errors.New("statement execution failed")

// ExecError - ошибка выполнения одного выражения
type ExecError struct {
	Op  string // имя операции (add_many, scan, ...)
	SQL string // SQL с нормализованными пробелами
	Err error  // исходная ошибка драйвера
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap позволяет проверять и ErrExecution, и исходную ошибку драйвера
func (e *ExecError) Unwrap() []error {
	return []error{ErrExecution, e.Err}
}

// FetchMode - что вернуть после выполнения
type FetchMode int

const (
	// FetchNone - количество затронутых строк
	FetchNone FetchMode = iota
	// FetchAll - все строки результата
	FetchAll
	// FetchOne - первая строка или ничего
	FetchOne
)

// Statement - одно выражение для ExecOne
type Statement struct {
	Op    string
	SQL   string
	Args  []any
	Fetch FetchMode
}

// Result - результат ExecOne
type Result struct {
	RowsAffected int64
	Columns      []string
	Rows         []record.Record
}

// First возвращает первую строку или nil
func (r *Result) First() record.Record {
	if r == nil || len(r.Rows) == 0 {
		return nil
	}
	return r.Rows[0]
}

// Scalar возвращает первую колонку первой строки
func (r *Result) Scalar() (any, bool) {
	first := r.First()
	if first == nil || len(r.Columns) == 0 {
		return nil, false
	}
	return first[r.Columns[0]], true
}

// Tuples returns the rows in positional shape, ordered as Columns.
func (r *Result) Tuples() [][]any {
	if r == nil {
		return nil
	}
	out := make([][]any, len(r.Rows))
	for i, row := range r.Rows {
		out[i] = row.Values(r.Columns)
	}
	return out
}

var spaces = regexp.MustCompile(`\s+`)

// NormalizeSQL схлопывает пробельные символы для логов
func NormalizeSQL(query string) string {
	return strings.TrimSpace(spaces.ReplaceAllString(query, " "))
}

// ExecOne acquires a connection, runs one statement inside a transaction and
// commits it. On any failure the transaction is rolled back (a rollback
// error is dropped), the failure is logged with the operation name and the
// normalized SQL, and an *ExecError is returned. The connection is released
// exactly once on every path.
func (c *Client) ExecOne(ctx context.Context, st Statement) (*Result, error) {
	started := time.Now()
	res, err := c.execOne(ctx, st)
	metrics.ObserveStatement(st.Op, started, err)
	if err != nil {
		return nil, c.fail(st.Op, st.SQL, err)
	}
	return res, nil
}

func (c *Client) execOne(ctx context.Context, st Statement) (res *Result, err error) {
	conn, err := c.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	query := st.SQL
	if len(st.Args) > 0 {
		query = c.dialect.Rebind(query)
	}

	if st.Fetch == FetchNone {
		r, err := tx.ExecContext(ctx, query, st.Args...)
		if err != nil {
			return nil, err
		}
		res = &Result{}
		// не все драйверы знают количество строк (DDL)
		if n, err := r.RowsAffected(); err == nil {
			res.RowsAffected = n
		}
	} else {
		rows, err := tx.QueryContext(ctx, query, st.Args...)
		if err != nil {
			return nil, err
		}
		res, err = readRows(rows, st.Fetch == FetchOne)
		if err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return res, nil
}

// readRows читает результат в записи и закрывает rows
func readRows(rows *sql.Rows, onlyFirst bool) (*Result, error) {
	defer rows.Close()

	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, err
	}

	res := &Result{Columns: make([]string, len(types))}
	for i, t := range types {
		res.Columns[i] = t.Name()
	}

	for rows.Next() {
		vals := make([]any, len(types))
		ptrs := make([]any, len(types))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}

		rec := make(record.Record, len(types))
		for i, t := range types {
			rec[res.Columns[i]] = record.Normalize(vals[i], t.DatabaseTypeName())
		}
		res.Rows = append(res.Rows, rec)

		if onlyFirst {
			break
		}
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	res.RowsAffected = int64(len(res.Rows))
	return res, nil
}

// ExecMany runs one statement once per parameter row inside a single
// transaction and returns the total number of affected rows. Failures are
// contained exactly as in ExecOne.
func (c *Client) ExecMany(ctx context.Context, op, query string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	started := time.Now()
	n, err := c.execMany(ctx, query, rows)
	metrics.ObserveStatement(op, started, err)
	if err != nil {
		return 0, c.fail(op, query, err)
	}
	return n, nil
}

func (c *Client) execMany(ctx context.Context, query string, rows [][]any) (total int64, err error) {
	conn, err := c.pool.Acquire(ctx)
	if err != nil {
		return 0, err
	}
	defer conn.Release()

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, c.dialect.Rebind(query))
	if err != nil {
		return 0, fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for i, args := range rows {
		r, err := stmt.ExecContext(ctx, args...)
		if err != nil {
			return 0, fmt.Errorf("row %d: %w", i, err)
		}
		if n, err := r.RowsAffected(); err == nil {
			total += n
		}
	}

	if err := stmt.Close(); err != nil {
		return 0, fmt.Errorf("close statement: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return total, nil
}

func (c *Client) fail(op, query string, err error) error {
	normalized := NormalizeSQL(query)
	c.logger.WithFields(logrus.Fields{
		"name": op,
		"sql":  normalized,
		"msg":  err.Error(),
	}).Error("statement failed")
	return &ExecError{Op: op, SQL: normalized, Err: err}
}

// ========== Convenience ==========

// Exec выполняет выражение и возвращает количество затронутых строк
func (c *Client) Exec(ctx context.Context, op, query string, args ...any) (int64, error) {
	res, err := c.ExecOne(ctx, Statement{Op: op, SQL: query, Args: args})
	if err != nil {
		return 0, err
	}
	return res.RowsAffected, nil
}

// QueryAll возвращает все строки результата (возможно ни одной)
func (c *Client) QueryAll(ctx context.Context, op, query string, args ...any) ([]record.Record, error) {
	res, err := c.ExecOne(ctx, Statement{Op: op, SQL: query, Args: args, Fetch: FetchAll})
	if err != nil {
		return nil, err
	}
	return res.Rows, nil
}

// QueryOne возвращает первую строку; nil без ошибки, если строк нет
func (c *Client) QueryOne(ctx context.Context, op, query string, args ...any) (record.Record, error) {
	res, err := c.ExecOne(ctx, Statement{Op: op, SQL: query, Args: args, Fetch: FetchOne})
	if err != nil {
		return nil, err
	}
	return res.First(), nil
}

// queryScalar возвращает первую колонку первой строки
func (c *Client) queryScalar(ctx context.Context, op, query string, args ...any) (any, error) {
	res, err := c.ExecOne(ctx, Statement{Op: op, SQL: query, Args: args, Fetch: FetchOne})
	if err != nil {
		return nil, err
	}
	v, _ := res.Scalar()
	return v, nil
}

// Fetch выполняет запрос чанка для сканера
func (c *Client) Fetch(ctx context.Context, query string, args ...any) ([]record.Record, error) {
	return c.QueryAll(ctx, "scan", query, args...)
}
