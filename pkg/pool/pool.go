// Package pool wraps database/sql with the connection policy of the access
// layer: a hard cap on concurrently acquired connections, blocking or
// fail-fast behaviour on exhaustion, pre-opened idle connections and
// retirement of a physical connection after a number of uses.
package pool

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"

	"github.com/ruslano69/sqlscan/pkg/adapters"
	"github.com/ruslano69/sqlscan/pkg/metrics"
)

var (
	// ErrExhausted - все соединения заняты, а пул настроен как неблокирующий
	ErrExhausted = errors.New("connection pool exhausted")

	// ErrClosed - пул уже закрыт
	ErrClosed = errors.New("connection pool closed")
)

// Pool - явный handle на пул соединений одной базы данных
type Pool struct {
	db      *sql.DB
	adapter adapters.Adapter
	cfg     adapters.Config

	sem   *semaphore.Weighted // nil = без ограничения
	inUse atomic.Int64

	mu    sync.Mutex
	usage map[string]int // драйверное соединение → количество использований

	closed atomic.Bool
}

// Stats - снимок состояния пула
type Stats struct {
	sql.DBStats
	Acquired int64 // выдано через Acquire и не возвращено
	Capacity int   // MaxConnections (0 = без ограничения)
}

// Open открывает базу через адаптер, применяет лимиты пула, прогревает
// MinCached соединений и проверяет подключение.
func Open(ctx context.Context, adapter adapters.Adapter, cfg adapters.Config) (*Pool, error) {
	if adapter == nil {
		return nil, fmt.Errorf("adapter is nil")
	}
	if cfg.MinCached < 0 || cfg.MaxCached < 0 || cfg.MaxUsage < 0 || cfg.MaxConnections < 0 {
		return nil, fmt.Errorf("pool limits must be >= 0")
	}
	if cfg.MaxConnections > 0 && cfg.MinCached > cfg.MaxConnections {
		return nil, fmt.Errorf("min_cached (%d) exceeds max_connections (%d)", cfg.MinCached, cfg.MaxConnections)
	}

	db, err := adapter.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	p := New(db, adapter, cfg)

	if err := p.warm(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to pre-open connections: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return p, nil
}

// New оборачивает уже открытый *sql.DB
func New(db *sql.DB, adapter adapters.Adapter, cfg adapters.Config) *Pool {
	maxIdle := cfg.MaxCached
	if maxIdle == 0 {
		maxIdle = cfg.MaxConnections
	}
	if maxIdle < cfg.MinCached {
		maxIdle = cfg.MinCached
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	if maxIdle > 0 {
		db.SetMaxIdleConns(maxIdle)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	p := &Pool{
		db:      db,
		adapter: adapter,
		cfg:     cfg,
		usage:   make(map[string]int),
	}
	if cfg.MaxConnections > 0 {
		p.sem = semaphore.NewWeighted(int64(cfg.MaxConnections))
	}
	return p
}

// warm открывает MinCached соединений одновременно и возвращает их в idle
func (p *Pool) warm(ctx context.Context) error {
	conns := make([]*sql.Conn, 0, p.cfg.MinCached)
	defer func() {
		for _, c := range conns {
			c.Close()
		}
	}()

	for i := 0; i < p.cfg.MinCached; i++ {
		c, err := p.db.Conn(ctx)
		if err != nil {
			return err
		}
		conns = append(conns, c)
	}
	return nil
}

// Acquire выдает соединение. При исчерпании пула ждет (Blocking) или
// сразу возвращает ErrExhausted.
func (p *Pool) Acquire(ctx context.Context) (*Conn, error) {
	if p.closed.Load() {
		return nil, ErrClosed
	}

	if p.sem != nil {
		if p.cfg.Blocking {
			if err := p.sem.Acquire(ctx, 1); err != nil {
				return nil, fmt.Errorf("acquire connection: %w", err)
			}
		} else if !p.sem.TryAcquire(1) {
			metrics.PoolExhaustedTotal.WithLabelValues(p.adapter.Name()).Inc()
			return nil, ErrExhausted
		}
	}

	sc, err := p.db.Conn(ctx)
	if err != nil {
		if p.sem != nil {
			p.sem.Release(1)
		}
		return nil, fmt.Errorf("acquire connection: %w", err)
	}

	p.track(1)
	return &Conn{Conn: sc, pool: p}, nil
}

func (p *Pool) track(delta int64) {
	n := p.inUse.Add(delta)
	metrics.PoolInUse.WithLabelValues(p.adapter.Name()).Set(float64(n))
}

// retire считает использование физического соединения и сообщает,
// что его пора закрыть
func (p *Pool) retire(key string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.usage[key]++
	if p.usage[key] >= p.cfg.MaxUsage {
		delete(p.usage, key)
		return true
	}
	return false
}

// InUse returns the number of connections handed out and not yet released.
func (p *Pool) InUse() int {
	return int(p.inUse.Load())
}

// Stats возвращает статистику database/sql и счетчики пула
func (p *Pool) Stats() Stats {
	return Stats{
		DBStats:  p.db.Stats(),
		Acquired: p.inUse.Load(),
		Capacity: p.cfg.MaxConnections,
	}
}

// DB возвращает нижележащий *sql.DB
func (p *Pool) DB() *sql.DB {
	return p.db
}

// Adapter возвращает адаптер СУБД
func (p *Pool) Adapter() adapters.Adapter {
	return p.adapter
}

// Config возвращает конфигурацию, с которой открыт пул
func (p *Pool) Config() adapters.Config {
	return p.cfg
}

// Close закрывает пул. Повторный вызов безопасен.
func (p *Pool) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	return p.db.Close()
}

// Conn - соединение, выданное пулом. Release возвращает его ровно один раз.
type Conn struct {
	*sql.Conn
	pool *Pool
	once sync.Once
}

// Release возвращает соединение в пул. Соединение, исчерпавшее MaxUsage,
// помечается плохим и закрывается драйвером. Повторные вызовы ничего не делают.
func (c *Conn) Release() {
	c.once.Do(func() {
		if c.pool.cfg.MaxUsage > 0 {
			_ = c.Conn.Raw(func(dc any) error {
				if c.pool.retire(fmt.Sprintf("%p", dc)) {
					return driver.ErrBadConn
				}
				return nil
			})
		}
		_ = c.Conn.Close()

		c.pool.track(-1)
		if c.pool.sem != nil {
			c.pool.sem.Release(1)
		}
	})
}
