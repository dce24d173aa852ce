package checkpoint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig - параметры Redis хранилища
type RedisConfig struct {
	Address  string        `yaml:"address"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	Prefix   string        `yaml:"prefix"` // по умолчанию "sqlscan:scan"
	TTL      time.Duration `yaml:"ttl"`    // 0 = без истечения
}

// RedisStore хранит чекпоинты в Redis и публикует каждое сохранение:
//
//	SET  <prefix>:<id>:state  <JSON>  EX <ttl>
//	PUB  <prefix>:<id>        <JSON>
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore создает хранилище с собственным клиентом
func NewRedisStore(cfg RedisConfig) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return NewRedisStoreWithClient(client, cfg.Prefix, cfg.TTL)
}

// NewRedisStoreWithClient использует готовый клиент
func NewRedisStoreWithClient(client *redis.Client, prefix string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = "sqlscan:scan"
	}
	return &RedisStore{client: client, prefix: prefix, ttl: ttl}
}

func (s *RedisStore) stateKey(id string) string {
	return fmt.Sprintf("%s:%s:state", s.prefix, id)
}

// Channel возвращает канал, в который публикуется прогресс скана id
func (s *RedisStore) Channel(id string) string {
	return fmt.Sprintf("%s:%s", s.prefix, id)
}

// Load читает чекпоинт; nil если ключа нет
func (s *RedisStore) Load(ctx context.Context, id string) (*Checkpoint, error) {
	data, err := s.client.Get(ctx, s.stateKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis GET failed: %w", err)
	}

	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal checkpoint: %w", err)
	}
	return &cp, nil
}

// Save пишет чекпоинт с TTL и публикует его
func (s *RedisStore) Save(ctx context.Context, cp *Checkpoint) error {
	if cp == nil || cp.ID == "" {
		return fmt.Errorf("checkpoint id is empty")
	}

	cpCopy := *cp
	cpCopy.UpdatedAt = time.Now()

	payload, err := json.Marshal(cpCopy)
	if err != nil {
		return fmt.Errorf("failed to marshal checkpoint: %w", err)
	}

	if err := s.client.Set(ctx, s.stateKey(cp.ID), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis SET failed: %w", err)
	}

	if err := s.client.Publish(ctx, s.Channel(cp.ID), payload).Err(); err != nil {
		return fmt.Errorf("redis PUBLISH failed: %w", err)
	}

	return nil
}

// Reset удаляет чекпоинт
func (s *RedisStore) Reset(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.stateKey(id)).Err(); err != nil {
		return fmt.Errorf("redis DEL failed: %w", err)
	}
	return nil
}

// Close закрывает соединение с Redis
func (s *RedisStore) Close() error {
	return s.client.Close()
}
