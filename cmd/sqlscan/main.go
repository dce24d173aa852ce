package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ruslano69/sqlscan/cmd/sqlscan/commands"
	"github.com/ruslano69/sqlscan/pkg/config"
	"github.com/ruslano69/sqlscan/pkg/logging"
	"github.com/ruslano69/sqlscan/pkg/metrics"
	"github.com/ruslano69/sqlscan/pkg/seed"
)

const version = "0.3.0"

var (
	configFile  string
	metricsAddr string
	logLevel    string
)

var rootCmd = &cobra.Command{
	Use:           "sqlscan",
	Short:         "Chunked keyset table scanner for MySQL, PostgreSQL, SQLite and MS SQL",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "sqlscan.yaml", "Configuration file")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (overrides metrics.addr)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides log.level)")

	rootCmd.AddCommand(scanCmd(), seedCmd(), statsCmd(), configCmd())
}

// setup загружает конфигурацию, создает логгер и запускает /metrics
func setup(ctx context.Context) (*config.Config, *logrus.Logger, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, nil, err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, nil, err
	}

	addr := cfg.Metrics.Addr
	if metricsAddr != "" {
		addr = metricsAddr
	}
	if addr != "" {
		go func() {
			if err := metrics.Serve(ctx, addr); err != nil {
				logger.WithError(err).Error("metrics server stopped")
			}
		}()
		logger.Infof("metrics on http://%s/metrics", addr)
	}
	return cfg, logger, nil
}

func scanCmd() *cobra.Command {
	var opts commands.ScanOptions
	cmd := &cobra.Command{
		Use:   "scan <table>",
		Short: "Scan a table in chunks and send every chunk to the configured sink",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(cmd.Context())
			if err != nil {
				return err
			}

			key, _ := cmd.Flags().GetString("sort-key")
			if key != "" {
				cfg.Scan.SortKey = key
			}
			if cmd.Flags().Changed("once") {
				cfg.Scan.Once, _ = cmd.Flags().GetInt("once")
			}
			if cmd.Flags().Changed("rest") {
				cfg.Scan.Rest, _ = cmd.Flags().GetDuration("rest")
			}
			if cmd.Flags().Changed("max-queries") {
				cfg.Scan.MaxQueries, _ = cmd.Flags().GetInt("max-queries")
			}
			if sink, _ := cmd.Flags().GetString("sink"); sink != "" {
				cfg.Sink.Type = sink
			}

			opts.Table = args[0]
			opts.Out = cmd.OutOrStdout()
			_, err = commands.Scan(cmd.Context(), cfg, logger, opts)
			if errors.Is(err, context.Canceled) {
				logger.Warn("scan interrupted, progress is kept in the checkpoint")
			}
			return err
		},
	}

	f := cmd.Flags()
	f.StringSliceVar(&opts.Columns, "columns", nil, "Columns to read (must include the sort key)")
	f.StringVar(&opts.Where, "where", "", "Extra SQL condition ANDed to every chunk query")
	f.StringVar(&opts.Start, "start", "", "First key (default MIN)")
	f.StringVar(&opts.End, "end", "", "Last key (default MAX)")
	f.StringVar(&opts.RunID, "run-id", "", "Batch key prefix for sinks (default random UUID)")
	f.IntVar(&opts.Shards, "shards", 0, "Split an integer key range into N parallel scans")
	f.BoolVar(&opts.Reset, "reset", false, "Drop the saved checkpoint and scan from the start")
	f.BoolVarP(&opts.Quiet, "quiet", "q", false, "No log line per chunk")
	f.String("sort-key", "", "Sort key column (default id)")
	f.Int("once", 0, "Rows per chunk (default 1000)")
	f.Duration("rest", 0, "Pause between chunks (default 50ms, -1ns disables)")
	f.Int("max-queries", 0, "Stop after N chunk queries")
	f.String("sink", "", "Sink type: log, kafka, rabbitmq, xlsx, s3")
	return cmd
}

func seedCmd() *cobra.Command {
	var opts seed.Options
	cmd := &cobra.Command{
		Use:   "seed <table>",
		Short: "Create a sample table and fill it with fake rows",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			opts.Table = args[0]
			return commands.SeedTable(cmd.Context(), cfg, logger, opts, cmd.OutOrStdout())
		},
	}

	f := cmd.Flags()
	f.IntVar(&opts.Once, "once", 1000, "Rows per transaction")
	f.IntVar(&opts.Total, "total", 10000, "Total rows")
	f.Uint64Var(&opts.Seed, "seed", 0, "Random seed (0 = random)")
	f.BoolVar(&opts.SkipCreate, "skip-create", false, "Append to an existing table")
	return cmd
}

func statsCmd() *cobra.Command {
	var key, where string
	cmd := &cobra.Command{
		Use:   "stats <table>",
		Short: "Print row count and key bounds of a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			_, err = commands.Stats(cmd.Context(), cfg, logger, args[0], key, where, cmd.OutOrStdout())
			return err
		},
	}
	cmd.Flags().StringVar(&key, "sort-key", "id", "Key column for MIN/MAX")
	cmd.Flags().StringVar(&where, "where", "", "Filter for COUNT")
	return cmd
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration helpers",
	}

	var dbType string
	var force bool
	initCmd := &cobra.Command{
		Use:   "init [file]",
		Short: "Write a sample configuration file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := configFile
			if len(args) == 1 {
				path = args[0]
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := config.Save(path, config.Sample(dbType)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Created %s for %s\n", path, dbType)
			return nil
		},
	}
	initCmd.Flags().StringVar(&dbType, "type", "mysql", "Database type: mysql, postgres, sqlite, mssql")
	initCmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")

	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "Load and validate the configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				return err
			}
			a := cfg.Adapter()
			fmt.Fprintf(cmd.OutOrStdout(), "✓ %s: %s pool max=%d blocking=%v, sink=%s, checkpoint=%s\n",
				configFile, a.Type, a.MaxConnections, a.Blocking, cfg.Sink.Type, cfg.Checkpoint.Type)
			return nil
		},
	}

	cmd.AddCommand(initCmd, checkCmd)
	return cmd
}
