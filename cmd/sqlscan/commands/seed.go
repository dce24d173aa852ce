package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/ruslano69/sqlscan/pkg/config"
	"github.com/ruslano69/sqlscan/pkg/seed"
)

// SeedTable создает тестовую таблицу и заполняет ее случайными строками
func SeedTable(ctx context.Context, cfg *config.Config, logger *logrus.Logger, opts seed.Options, out io.Writer) error {
	client, logger, err := open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer client.Close()

	if opts.Logger == nil {
		opts.Logger = logger
	}

	n, err := seed.Run(ctx, client, opts)
	if err != nil {
		return fmt.Errorf("seed failed after %d rows: %w", n, err)
	}

	if out != nil {
		fmt.Fprintf(out, "✓ %s: inserted %d rows\n", opts.Table, n)
	}
	return nil
}
