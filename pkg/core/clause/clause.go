// Package clause builds SQL text fragments from semantic values: IN lists,
// WHERE predicates and SET assignments.
//
// Values are interpolated as literal text and are NOT escaped. Everything that
// flows through this package is caller-trusted SQL text; only the parameterized
// paths of pkg/rdb (inserts, update-one/many, quick update, scan bounds) bind
// values as driver arguments.
package clause

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// DefaultSeparator разделитель по умолчанию для списков и SET
const DefaultSeparator = ", "

// AndSeparator разделитель для WHERE предикатов
const AndSeparator = " and "

// Field - одна пара колонка/значение
//
// Value semantics inside a predicate:
//
//	true        → "<col> is not null"
//	false, nil  → "<col> is null"
//	other       → "<col>='<value>'"
type Field struct {
	Column string
	Value  any
}

// Fields - упорядоченный набор пар колонка/значение
type Fields []Field

// FromMap converts an unordered map into Fields sorted by column name,
// so the generated SQL is deterministic.
func FromMap(m map[string]any) Fields {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fields := make(Fields, 0, len(keys))
	for _, k := range keys {
		fields = append(fields, Field{Column: k, Value: m[k]})
	}
	return fields
}

// Pairs builds Fields from alternating column/value arguments:
//
//	clause.Pairs("name", "CLOS", "deleted_at", nil)
//
// A trailing column without a value is treated as nil.
func Pairs(kv ...any) Fields {
	fields := make(Fields, 0, (len(kv)+1)/2)
	for i := 0; i < len(kv); i += 2 {
		f := Field{Column: fmt.Sprint(kv[i])}
		if i+1 < len(kv) {
			f.Value = kv[i+1]
		}
		fields = append(fields, f)
	}
	return fields
}

// Columns возвращает имена колонок в исходном порядке
func (f Fields) Columns() []string {
	cols := make([]string, len(f))
	for i, field := range f {
		cols[i] = field.Column
	}
	return cols
}

// ========== Rendering ==========

// Text renders a value the way it is embedded into SQL text.
func Text(v any) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case string:
		return val
	case []byte:
		return string(val)
	case time.Time:
		return val.Format("2006-01-02 15:04:05")
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}

// List joins values as text. With quote=true every value is wrapped in single
// quotes, which is the shape used for IN (...) lists; with quote=false the
// values are rendered bare (column lists, numeric lists).
func List(values []any, quote bool, sep string) string {
	if sep == "" {
		sep = DefaultSeparator
	}

	parts := make([]string, len(values))
	for i, v := range values {
		if quote {
			parts[i] = "'" + Text(v) + "'"
		} else {
			parts[i] = Text(v)
		}
	}
	return strings.Join(parts, sep)
}

// Strings is List for a slice of strings.
func Strings(values []string, quote bool, sep string) string {
	return List(Values(values), quote, sep)
}

// Values converts a typed slice into []any for List.
func Values[T any](vs []T) []any {
	out := make([]any, len(vs))
	for i, v := range vs {
		out[i] = v
	}
	return out
}

// Assignments renders one comparison/assignment per field joined by sep.
// The same "col='value'" text is valid both in WHERE (with " and ") and in
// SET (with ", ").
func Assignments(fields Fields, sep string) string {
	if sep == "" {
		sep = DefaultSeparator
	}

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, assignment(f))
	}
	return strings.Join(parts, sep)
}

func assignment(f Field) string {
	switch v := f.Value.(type) {
	case nil:
		return f.Column + " is null"
	case bool:
		if v {
			return f.Column + " is not null"
		}
		return f.Column + " is null"
	default:
		return fmt.Sprintf("%s='%s'", f.Column, Text(v))
	}
}
