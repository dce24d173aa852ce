package base

import (
	"fmt"
	"strconv"
	"strings"
)

// PlaceholderStyle - синтаксис плейсхолдеров драйвера
type PlaceholderStyle int

const (
	// Question - "?" (MySQL, SQLite)
	Question PlaceholderStyle = iota
	// Dollar - "$1, $2" (PostgreSQL)
	Dollar
	// AtP - "@p1, @p2" (MS SQL Server)
	AtP
)

// Rebind rewrites "?" placeholders into the driver style. Question marks inside
// single-quoted, double-quoted or backtick-quoted text are left alone.
func Rebind(style PlaceholderStyle, query string) string {
	if style == Question || !strings.Contains(query, "?") {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 16)

	n := 0
	var quote rune
	for _, r := range query {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
			b.WriteRune(r)
		case r == '\'' || r == '"' || r == '`':
			quote = r
			b.WriteRune(r)
		case r == '?':
			n++
			if style == Dollar {
				b.WriteString("$")
			} else {
				b.WriteString("@p")
			}
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Placeholders returns "?, ?, ?" for n values.
func Placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// StandardSQL реализует общие части диалекта для СУБД с LIMIT
// (MySQL, PostgreSQL, SQLite)
type StandardSQL struct {
	Style PlaceholderStyle
}

// Rebind переписывает плейсхолдеры в стиль драйвера
func (s StandardSQL) Rebind(query string) string {
	return Rebind(s.Style, query)
}

// SelectLimit строит SELECT ... WHERE ... ORDER BY ... LIMIT n
func (s StandardSQL) SelectLimit(columns, table, where, orderBy string, limit int) string {
	if columns == "" {
		columns = "*"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM %s", columns, table)
	if where != "" {
		b.WriteString(" WHERE ")
		b.WriteString(where)
	}
	if orderBy != "" {
		b.WriteString(" ORDER BY ")
		b.WriteString(orderBy)
	}
	if limit > 0 {
		fmt.Fprintf(&b, " LIMIT %d", limit)
	}
	return b.String()
}

// OnConflictUpsert строит INSERT ... ON CONFLICT (unique) DO UPDATE SET ...
// (PostgreSQL, SQLite)
func OnConflictUpsert(table string, columns []string, unique, update string) string {
	if update == "" {
		update = fmt.Sprintf("%s=excluded.%s", unique, unique)
	}
	return fmt.Sprintf("INSERT INTO %s(%s) VALUES(%s) ON CONFLICT(%s) DO UPDATE SET %s",
		table,
		strings.Join(columns, ", "),
		Placeholders(len(columns)),
		unique,
		update,
	)
}
