package sinks

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// KafkaConfig - конфигурация Kafka sink
type KafkaConfig struct {
	Brokers      []string      `yaml:"brokers"`
	Topic        string        `yaml:"topic"`
	MaxAttempts  int           `yaml:"max_attempts"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink публикует каждый батч одним сообщением
type KafkaSink struct {
	writer   messageWriter
	topic    string
	compress bool
}

// NewKafkaSink создает writer; соединение устанавливается при первой записи
func NewKafkaSink(cfg KafkaConfig, compress bool) (*KafkaSink, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka: brokers list is empty")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("kafka: topic is required")
	}
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 10 * time.Second
	}

	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireAll,
		Compression:  kafka.Snappy,
		MaxAttempts:  cfg.MaxAttempts,
		WriteTimeout: cfg.WriteTimeout,
	}
	return newKafkaSink(w, cfg.Topic, compress), nil
}

func newKafkaSink(w messageWriter, topic string, compress bool) *KafkaSink {
	return &KafkaSink{writer: w, topic: topic, compress: compress}
}

func (s *KafkaSink) Name() string { return TypeKafka }

func (s *KafkaSink) Write(ctx context.Context, b Batch) error {
	p, err := Encode(b.Rows, s.compress)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(uuid.NewString()),
		Value: p.Body,
		Time:  time.Now(),
		Headers: []kafka.Header{
			{Key: "run_id", Value: []byte(b.RunID)},
			{Key: "table", Value: []byte(b.Table)},
			{Key: "seq", Value: []byte(strconv.Itoa(b.Seq))},
			{Key: "rows", Value: []byte(strconv.Itoa(p.Rows))},
			{Key: "encoding", Value: []byte(p.Encoding)},
			{Key: "checksum", Value: []byte(p.Checksum)},
		},
	}

	if err := s.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write message to %s: %w", s.topic, err)
	}
	return nil
}

func (s *KafkaSink) Close() error {
	if s.writer != nil {
		return s.writer.Close()
	}
	return nil
}
