package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Статусы выполнения
const (
	StatusOK    = "ok"
	StatusError = "error"
)

var (
	// StatementsTotal counts executed statements by operation and status.
	StatementsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sqlscan_statements_total",
			Help: "Total number of executed statements",
		},
		[]string{"op", "status"},
	)
	// StatementDuration is the latency of acquire+execute+commit.
	StatementDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sqlscan_statement_duration_seconds",
			Help:    "Statement latency in seconds, including connection acquisition and commit",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op"},
	)
	// ScanChunksTotal counts dispatched scan chunks per table.
	ScanChunksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sqlscan_scan_chunks_total",
			Help: "Total number of chunks dispatched to scan handlers",
		},
		[]string{"table"},
	)
	// ScanRowsTotal counts rows dispatched to scan handlers per table.
	ScanRowsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sqlscan_scan_rows_total",
			Help: "Total number of rows dispatched to scan handlers",
		},
		[]string{"table"},
	)
	// PoolInUse - соединения, выданные через Acquire и еще не возвращенные
	PoolInUse = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "sqlscan_pool_in_use",
			Help: "Connections currently acquired from the pool",
		},
		[]string{"adapter"},
	)
	// PoolExhaustedTotal counts non-blocking acquisitions rejected by a full pool.
	PoolExhaustedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sqlscan_pool_exhausted_total",
			Help: "Total number of acquisitions rejected because the pool was exhausted",
		},
		[]string{"adapter"},
	)
	// SinkBatchesTotal counts batches delivered to sinks.
	SinkBatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sqlscan_sink_batches_total",
			Help: "Total number of batches written to sinks",
		},
		[]string{"sink", "status"},
	)
)

// Status maps an error to a status label.
func Status(err error) string {
	if err != nil {
		return StatusError
	}
	return StatusOK
}

// ObserveStatement записывает счетчик и задержку одного выражения
func ObserveStatement(op string, started time.Time, err error) {
	StatementsTotal.WithLabelValues(op, Status(err)).Inc()
	StatementDuration.WithLabelValues(op).Observe(time.Since(started).Seconds())
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Serve отдает /metrics на addr до отмены ctx
func Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
