// Package seed создает тестовую таблицу и заполняет ее случайными данными
package seed

import (
	"context"
	"fmt"
	"strings"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/sirupsen/logrus"

	"github.com/ruslano69/sqlscan/pkg/core/clause"
	"github.com/ruslano69/sqlscan/pkg/core/record"
	"github.com/ruslano69/sqlscan/pkg/logging"
	"github.com/ruslano69/sqlscan/pkg/rdb"
)

// Columns - колонки тестовой таблицы кроме автоинкрементного id
var Columns = []string{"name", "gender", "age", "phone", "ssn", "job", "salary", "company", "address", "mark"}

// Options - параметры генерации
type Options struct {
	Table string
	Once  int // строк в одной транзакции, по умолчанию 1000
	Total int // всего строк, по умолчанию 10000

	// SkipCreate - таблица уже существует
	SkipCreate bool

	// Seed фиксирует генератор; 0 = случайный
	Seed uint64

	Logger logrus.FieldLogger
}

// Row генерирует одну строку тестовой таблицы
func Row(f *gofakeit.Faker) record.Record {
	gender := "M"
	if f.Bool() {
		gender = "F"
	}
	return record.Record{
		"name":    f.Name(),
		"gender":  gender,
		"age":     int64(f.Number(18, 60)),
		"phone":   f.Phone(),
		"ssn":     f.SSN(),
		"job":     f.JobTitle(),
		"salary":  int64(f.Number(1000, 9999)),
		"company": f.Company(),
		"address": f.Street() + ", " + f.City(),
		"mark":    f.Letter(),
	}
}

// Run создает таблицу и вставляет Total строк пачками по Once.
// Возвращает количество вставленных строк.
func Run(ctx context.Context, c *rdb.Client, opts Options) (int64, error) {
	if opts.Table == "" {
		return 0, fmt.Errorf("seed: table is required")
	}
	if opts.Once <= 0 {
		opts.Once = 1000
	}
	if opts.Total <= 0 {
		opts.Total = 10000
	}
	logger := logging.OrDiscard(opts.Logger).WithField("table", opts.Table)

	if !opts.SkipCreate {
		if _, err := c.Exec(ctx, "create_table", c.Dialect().SampleTableDDL(opts.Table)); err != nil {
			return 0, err
		}
	}

	f := gofakeit.New(opts.Seed)
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		opts.Table,
		clause.Strings(Columns, false, clause.DefaultSeparator),
		strings.TrimSuffix(strings.Repeat("?, ", len(Columns)), ", "))

	var total int64
	for left := opts.Total; left > 0; left -= opts.Once {
		if err := ctx.Err(); err != nil {
			return total, err
		}

		n := min(left, opts.Once)
		args := make([][]any, n)
		for i := range args {
			args[i] = Row(f).Values(Columns)
		}

		added, err := c.ExecMany(ctx, "seed", query, args)
		if err != nil {
			return total, err
		}
		total += added
		logging.Success(logger, "inserted %d, total %d", added, total)
	}
	return total, nil
}
