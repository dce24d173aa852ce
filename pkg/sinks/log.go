package sinks

import (
	"context"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/ruslano69/sqlscan/pkg/logging"
)

// LogSink пишет строку лога на каждый батч (и каждую строку на уровне debug)
type LogSink struct {
	logger logrus.FieldLogger
	rows   atomic.Int64
}

// NewLogSink создает LogSink; nil логгер отбрасывает записи
func NewLogSink(logger logrus.FieldLogger) *LogSink {
	return &LogSink{logger: logging.OrDiscard(logger)}
}

func (s *LogSink) Name() string { return TypeLog }

func (s *LogSink) Write(_ context.Context, b Batch) error {
	for _, row := range b.Rows {
		s.logger.Debug(row)
	}
	total := s.rows.Add(int64(len(b.Rows)))
	logging.Success(s.logger.WithField("table", b.Table),
		"batch %d: %d rows [%v..%v], total %d", b.Seq, len(b.Rows), b.First, b.Last, total)
	return nil
}

func (s *LogSink) Close() error { return nil }
