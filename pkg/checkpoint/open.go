package checkpoint

import (
	"fmt"
)

// Типы хранилища
const (
	TypeNone  = "none"
	TypeFile  = "file"
	TypeRedis = "redis"
)

// Config - выбор и параметры хранилища чекпоинтов
type Config struct {
	Type     string      `yaml:"type"` // none, file, redis
	Path     string      `yaml:"path,omitempty"`
	AutoSave bool        `yaml:"auto_save,omitempty"`
	Redis    RedisConfig `yaml:"redis,omitempty"`
}

// Open создает хранилище по конфигурации. Для "none" возвращает nil, nil.
// Вызывающий закрывает хранилище через Close.
func Open(cfg Config) (Store, error) {
	switch cfg.Type {
	case "", TypeNone:
		return nil, nil
	case TypeFile:
		if cfg.Path == "" {
			return nil, fmt.Errorf("checkpoint: path is required for file store")
		}
		return NewFileStore(cfg.Path, cfg.AutoSave)
	case TypeRedis:
		if cfg.Redis.Address == "" {
			return nil, fmt.Errorf("checkpoint: redis address is required")
		}
		return NewRedisStore(cfg.Redis), nil
	default:
		return nil, fmt.Errorf("unknown checkpoint store: %s", cfg.Type)
	}
}

// Close сохраняет FileStore на диск и закрывает клиент RedisStore
func Close(s Store) error {
	switch st := s.(type) {
	case *FileStore:
		return st.Flush()
	case *RedisStore:
		return st.Close()
	}
	return nil
}
