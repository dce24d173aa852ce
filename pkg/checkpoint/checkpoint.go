// Package checkpoint хранит прогресс сканирования таблицы, чтобы прерванный
// скан можно было продолжить после последнего обработанного ключа.
package checkpoint

import (
	"context"
	"time"

	"github.com/ruslano69/sqlscan/pkg/core/record"
)

// Checkpoint - прогресс одного скана
type Checkpoint struct {
	ID        string         `json:"id"`
	Table     string         `json:"table"`
	SortKey   string         `json:"sort_key"`
	LastKey   string         `json:"last_key"`           // последний обработанный ключ (EncodeKey)
	KeyKind   record.KeyKind `json:"key_kind,omitempty"` // тип ключа для DecodeKey
	Rows      int64          `json:"rows"`
	Chunks    int64          `json:"chunks"`
	Done      bool           `json:"done"`
	UpdatedAt time.Time      `json:"updated_at"`
	LastError string         `json:"last_error,omitempty"`
}

// Key decodes LastKey back into a Go value. ok is false when nothing was saved.
func (c *Checkpoint) Key() (v any, ok bool, err error) {
	if c == nil || c.KeyKind == "" {
		return nil, false, nil
	}
	v, err = record.DecodeKey(c.LastKey, c.KeyKind)
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

// SetKey encodes v into LastKey/KeyKind.
func (c *Checkpoint) SetKey(v any) error {
	s, kind, err := record.EncodeKey(v)
	if err != nil {
		return err
	}
	c.LastKey, c.KeyKind = s, kind
	return nil
}

// Store - хранилище чекпоинтов
type Store interface {
	// Load возвращает чекпоинт или nil, если его нет
	Load(ctx context.Context, id string) (*Checkpoint, error)

	// Save сохраняет чекпоинт (UpdatedAt выставляет хранилище)
	Save(ctx context.Context, cp *Checkpoint) error

	// Reset удаляет чекпоинт для полного повторного скана
	Reset(ctx context.Context, id string) error
}
