// Package commands реализует команды sqlscan CLI
package commands

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/ruslano69/sqlscan/pkg/config"
	"github.com/ruslano69/sqlscan/pkg/logging"
	"github.com/ruslano69/sqlscan/pkg/rdb"
)

// open подключается к базе из конфигурации
func open(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*rdb.Client, *logrus.Logger, error) {
	if logger == nil {
		logger = logging.Discard()
	}
	client, err := rdb.Open(ctx, cfg.Adapter(), rdb.WithLogger(logger))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	return client, logger, nil
}
