package sinks

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"strings"
	"time"
)

// Backoff определяет стратегию задержки между повторами
type Backoff string

const (
	BackoffConstant    Backoff = "constant"
	BackoffLinear      Backoff = "linear"
	BackoffExponential Backoff = "exponential"
)

// RetryConfig - повторная отправка батча при сбое sink
type RetryConfig struct {
	// MaxAttempts включая первую; <= 1 отключает повторы
	MaxAttempts  int           `yaml:"max_attempts"`
	InitialDelay time.Duration `yaml:"initial_delay"`
	MaxDelay     time.Duration `yaml:"max_delay"`
	Backoff      Backoff       `yaml:"backoff"`
	Multiplier   float64       `yaml:"multiplier"`
	// Jitter 0.0 - 1.0
	Jitter float64 `yaml:"jitter"`
	// RetryableErrors - подстроки ошибок для повтора; пусто = любые
	RetryableErrors []string `yaml:"retryable_errors"`

	OnRetry func(attempt int, err error, delay time.Duration) `yaml:"-"`
}

// DefaultRetryConfig возвращает конфигурацию по умолчанию
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  3,
		InitialDelay: time.Second,
		MaxDelay:     30 * time.Second,
		Backoff:      BackoffExponential,
		Multiplier:   2.0,
		Jitter:       0.1,
	}
}

// Validate проверяет конфигурацию и заполняет умолчания
func (c *RetryConfig) Validate() error {
	if c.MaxAttempts < 0 {
		return fmt.Errorf("max_attempts must be >= 0, got %d", c.MaxAttempts)
	}
	if c.InitialDelay < 0 {
		return fmt.Errorf("initial_delay must be >= 0")
	}
	if c.MaxDelay == 0 {
		c.MaxDelay = c.InitialDelay
	}
	if c.MaxDelay < c.InitialDelay {
		return fmt.Errorf("max_delay (%v) must be >= initial_delay (%v)", c.MaxDelay, c.InitialDelay)
	}
	switch c.Backoff {
	case "":
		c.Backoff = BackoffExponential
	case BackoffConstant, BackoffLinear, BackoffExponential:
	default:
		return fmt.Errorf("invalid backoff strategy: %s", c.Backoff)
	}
	if c.Multiplier <= 0 {
		c.Multiplier = 2.0
	}
	if c.Jitter < 0 || c.Jitter > 1.0 {
		return fmt.Errorf("jitter must be between 0.0 and 1.0, got %f", c.Jitter)
	}
	return nil
}

// Delay - задержка перед повтором номер attempt (с 1)
func (c RetryConfig) Delay(attempt int) time.Duration {
	var delay time.Duration
	switch c.Backoff {
	case BackoffLinear:
		delay = c.InitialDelay * time.Duration(attempt)
	case BackoffExponential:
		delay = time.Duration(float64(c.InitialDelay) * math.Pow(c.Multiplier, float64(attempt-1)))
	default:
		delay = c.InitialDelay
	}

	if delay > c.MaxDelay {
		delay = c.MaxDelay
	}

	if c.Jitter > 0 {
		delay += time.Duration(float64(delay) * c.Jitter * (rand.Float64()*2 - 1))
		if delay < 0 {
			delay = c.InitialDelay
		}
	}
	return delay
}

func (c RetryConfig) retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if len(c.RetryableErrors) == 0 {
		return true
	}
	msg := err.Error()
	for _, pattern := range c.RetryableErrors {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}

type retrying struct {
	Sink
	cfg RetryConfig
}

// WithRetry оборачивает sink повторной отправкой батча
func WithRetry(s Sink, cfg RetryConfig) (Sink, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid retry config: %w", err)
	}
	return &retrying{Sink: s, cfg: cfg}, nil
}

func (r *retrying) Write(ctx context.Context, b Batch) error {
	for attempt := 1; ; attempt++ {
		err := r.Sink.Write(ctx, b)
		if err == nil {
			return nil
		}

		if !r.cfg.retryable(err) {
			return fmt.Errorf("non-retryable error: %w", err)
		}
		if r.cfg.MaxAttempts > 0 && attempt >= r.cfg.MaxAttempts {
			return fmt.Errorf("max retry attempts (%d) exceeded: %w", r.cfg.MaxAttempts, err)
		}

		delay := r.cfg.Delay(attempt)
		if r.cfg.OnRetry != nil {
			r.cfg.OnRetry(attempt, err, delay)
		}

		t := time.NewTimer(delay)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
			return fmt.Errorf("context cancelled during retry: %w", ctx.Err())
		}
	}
}
