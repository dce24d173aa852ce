package checkpoint

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// FileStore хранит чекпоинты в одном JSON файле (id → checkpoint)
type FileStore struct {
	mu       sync.RWMutex
	states   map[string]*Checkpoint
	path     string
	autoSave bool
}

var _ Store = (*FileStore)(nil)

// NewFileStore открывает хранилище; существующий файл загружается.
// С autoSave каждое изменение сразу пишется на диск.
func NewFileStore(path string, autoSave bool) (*FileStore, error) {
	fs := &FileStore{
		states:   make(map[string]*Checkpoint),
		path:     path,
		autoSave: autoSave,
	}

	if _, err := os.Stat(path); err == nil {
		if err := fs.load(); err != nil {
			return nil, fmt.Errorf("failed to load checkpoints: %w", err)
		}
	}

	return fs, nil
}

// Load возвращает копию чекпоинта
func (fs *FileStore) Load(_ context.Context, id string) (*Checkpoint, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	cp, ok := fs.states[id]
	if !ok {
		return nil, nil
	}
	cpCopy := *cp
	return &cpCopy, nil
}

// Save сохраняет копию чекпоинта
func (fs *FileStore) Save(_ context.Context, cp *Checkpoint) error {
	if cp == nil || cp.ID == "" {
		return fmt.Errorf("checkpoint id is empty")
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	cpCopy := *cp
	cpCopy.UpdatedAt = time.Now()
	fs.states[cp.ID] = &cpCopy

	if fs.autoSave {
		return fs.saveUnsafe()
	}
	return nil
}

// Reset удаляет чекпоинт
func (fs *FileStore) Reset(_ context.Context, id string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	delete(fs.states, id)

	if fs.autoSave {
		return fs.saveUnsafe()
	}
	return nil
}

// IDs возвращает идентификаторы всех чекпоинтов
func (fs *FileStore) IDs() []string {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	ids := make([]string, 0, len(fs.states))
	for id := range fs.states {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Flush пишет состояние на диск
func (fs *FileStore) Flush() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	return fs.saveUnsafe()
}

// saveUnsafe пишет во временный файл и переименовывает (lock уже взят)
func (fs *FileStore) saveUnsafe() error {
	data, err := json.MarshalIndent(fs.states, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal checkpoints: %w", err)
	}

	if dir := filepath.Dir(fs.path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create checkpoint dir: %w", err)
		}
	}

	tmp := fs.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write checkpoint file: %w", err)
	}
	return os.Rename(tmp, fs.path)
}

func (fs *FileStore) load() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	data, err := os.ReadFile(fs.path)
	if err != nil {
		return fmt.Errorf("failed to read checkpoint file: %w", err)
	}

	states := make(map[string]*Checkpoint)
	if err := json.Unmarshal(data, &states); err != nil {
		return fmt.Errorf("failed to unmarshal checkpoints: %w", err)
	}

	fs.states = states
	return nil
}

// Path возвращает путь к файлу
func (fs *FileStore) Path() string {
	return fs.path
}
