// Package rdb is the relational access layer: a pooled single-statement
// execution wrapper that contains driver failures behind ErrExecution, the
// CRUD helpers built on it, the filtered bulk insert and the entry point of
// the keyset batch scanner.
package rdb

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/ruslano69/sqlscan/pkg/adapters"
	"github.com/ruslano69/sqlscan/pkg/logging"
	"github.com/ruslano69/sqlscan/pkg/pool"
)

// Client - handle на одну базу данных. Создается через Open или New и
// закрывается явно через Close.
type Client struct {
	pool    *pool.Pool
	dialect adapters.Dialect
	logger  logrus.FieldLogger
}

// Option настраивает Client
type Option func(*Client)

// WithLogger задает логгер (по умолчанию логи отбрасываются)
func WithLogger(l logrus.FieldLogger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New создает Client поверх открытого пула
func New(p *pool.Pool, opts ...Option) *Client {
	c := &Client{
		pool:    p,
		dialect: p.Adapter(),
		logger:  logging.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Open находит адаптер по cfg.Type, открывает пул и создает Client
func Open(ctx context.Context, cfg adapters.Config, opts ...Option) (*Client, error) {
	adapter, err := adapters.Get(cfg.Type)
	if err != nil {
		return nil, err
	}

	p, err := pool.Open(ctx, adapter, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s pool: %w", cfg.Type, err)
	}

	return New(p, opts...), nil
}

// Close закрывает пул соединений
func (c *Client) Close() error {
	return c.pool.Close()
}

// Pool возвращает пул соединений
func (c *Client) Pool() *pool.Pool {
	return c.pool
}

// Dialect возвращает SQL диалект базы
func (c *Client) Dialect() adapters.Dialect {
	return c.dialect
}

// Logger возвращает логгер клиента
func (c *Client) Logger() logrus.FieldLogger {
	return c.logger
}
