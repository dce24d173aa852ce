// Package sinks содержит готовые обработчики чанков сканера: запись в лог,
// Kafka, RabbitMQ, XLSX и S3. Sink не знает о сканере; Handler адаптирует
// его к scan.ChunkFunc.
package sinks

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ruslano69/sqlscan/pkg/core/record"
	"github.com/ruslano69/sqlscan/pkg/metrics"
	"github.com/ruslano69/sqlscan/pkg/scan"
)

// Типы sink
const (
	TypeLog      = "log"
	TypeKafka    = "kafka"
	TypeRabbitMQ = "rabbitmq"
	TypeXLSX     = "xlsx"
	TypeS3       = "s3"
)

// Batch - один чанк скана, адресованный sink
type Batch struct {
	RunID string
	Table string
	Seq   int
	Rows  []record.Record
	First any
	Last  any
}

// Key - стабильный ключ батча: <run>-<seq>
func (b Batch) Key() string {
	return fmt.Sprintf("%s-%06d", b.RunID, b.Seq)
}

// Sink принимает батчи строк
type Sink interface {
	Name() string
	Write(ctx context.Context, b Batch) error
	Close() error
}

// Handler adapts a sink to a scan handler. An empty runID gets a fresh UUID
// so batch keys of different runs never collide. Batches are numbered by the
// handler itself, so shards of one sharded scan share a single sequence.
func Handler(s Sink, table, runID string) scan.ChunkFunc {
	if runID == "" {
		runID = uuid.NewString()
	}
	var seq atomic.Int64
	return func(ctx context.Context, chunk scan.Chunk) error {
		err := s.Write(ctx, Batch{
			RunID: runID,
			Table: table,
			Seq:   int(seq.Add(1)),
			Rows:  chunk.Rows,
			First: chunk.First,
			Last:  chunk.Last,
		})
		metrics.SinkBatchesTotal.WithLabelValues(s.Name(), metrics.Status(err)).Inc()
		if err != nil {
			return fmt.Errorf("%s sink: %w", s.Name(), err)
		}
		return nil
	}
}

// Config - конфигурация sink
type Config struct {
	Type     string         `yaml:"type"`     // log, kafka, rabbitmq, xlsx, s3
	Compress bool           `yaml:"compress"` // zstd для kafka, rabbitmq, s3
	Kafka    KafkaConfig    `yaml:"kafka"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq"`
	XLSX     XLSXConfig     `yaml:"xlsx"`
	S3       S3Config       `yaml:"s3"`
	Retry    RetryConfig    `yaml:"retry"`
}

// New создает sink по типу. Retry.MaxAttempts > 1 оборачивает его в WithRetry.
func New(ctx context.Context, cfg Config, logger logrus.FieldLogger) (Sink, error) {
	var (
		s   Sink
		err error
	)

	switch cfg.Type {
	case "", TypeLog:
		s = NewLogSink(logger)
	case TypeKafka:
		s, err = NewKafkaSink(cfg.Kafka, cfg.Compress)
	case TypeRabbitMQ:
		s, err = NewRabbitMQSink(cfg.RabbitMQ, cfg.Compress)
	case TypeXLSX:
		s, err = NewXLSXSink(cfg.XLSX)
	case TypeS3:
		s, err = NewS3Sink(ctx, cfg.S3, cfg.Compress)
	default:
		return nil, fmt.Errorf("unknown sink type: %s", cfg.Type)
	}
	if err != nil {
		return nil, err
	}

	if cfg.Retry.MaxAttempts > 1 {
		return WithRetry(s, cfg.Retry)
	}
	return s, nil
}
