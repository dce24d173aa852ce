// Package record describes rows moving through the access layer and the
// invariants every batch must satisfy before SQL is built for it.
package record

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrEmptyBatch - пустой набор записей
	ErrEmptyBatch = errors.New("empty record batch")

	// ErrMissingField - в записи нет обязательного поля
	ErrMissingField = errors.New("missing required field")

	// ErrSchemaMismatch - записи в одном батче имеют разный набор полей
	ErrSchemaMismatch = errors.New("record schema mismatch")
)

// Record - одна строка: имя колонки → значение.
// Values are nil, int64, float64, bool, string, time.Time or []byte for
// binary columns.
type Record map[string]any

// Columns returns the record's column names in deterministic (sorted) order.
func Columns(r Record) []string {
	cols := make([]string, 0, len(r))
	for k := range r {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	return cols
}

// Values returns the record's values in the order of columns.
func (r Record) Values(columns []string) []any {
	vals := make([]any, len(columns))
	for i, c := range columns {
		vals[i] = r[c]
	}
	return vals
}

// Clone возвращает поверхностную копию записи
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Uniform derives the column order of a batch once, from its first record,
// and validates every record against it. must, when non-empty, names a field
// every record has to carry (the key used by update/upsert statements).
//
// The returned column order is what placeholders and argument tuples are built
// from, so a record with a different field set is rejected here instead of
// silently shifting values between columns.
func Uniform(items []Record, must string) ([]string, error) {
	if len(items) == 0 {
		return nil, ErrEmptyBatch
	}

	columns := Columns(items[0])
	if must != "" {
		if _, ok := items[0][must]; !ok {
			return nil, fmt.Errorf("%w: %s (record 0)", ErrMissingField, must)
		}
	}

	for i, item := range items[1:] {
		if must != "" {
			if _, ok := item[must]; !ok {
				return nil, fmt.Errorf("%w: %s (record %d)", ErrMissingField, must, i+1)
			}
		}
		if len(item) != len(columns) {
			return nil, fmt.Errorf("%w: record %d has %d fields, expected %d (%s)",
				ErrSchemaMismatch, i+1, len(item), len(columns), strings.Join(columns, ", "))
		}
		for _, c := range columns {
			if _, ok := item[c]; !ok {
				return nil, fmt.Errorf("%w: record %d has no field %s", ErrSchemaMismatch, i+1, c)
			}
		}
	}

	return columns, nil
}

// Without returns columns minus the named one, keeping order.
func Without(columns []string, name string) []string {
	out := make([]string, 0, len(columns))
	for _, c := range columns {
		if c != name {
			out = append(out, c)
		}
	}
	return out
}
