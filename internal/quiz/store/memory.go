package store

import (
	"context"
	"sync"

	"github.com/gokatarajesh/trivia-quiz/internal/quiz"
)

// Memory keeps slots in a map. Used by tests and single-process runs.
type Memory struct {
	mu    sync.RWMutex
	slots map[string][]byte
}

var (
	_ quiz.Store   = (*Memory)(nil)
	_ quiz.Swapper = (*Memory)(nil)
)

func NewMemory() *Memory {
	return &Memory{slots: make(map[string][]byte)}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.slots[key]
	if !ok {
		return nil, quiz.ErrNotFound
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slots[key] = append([]byte(nil), value...)
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.slots, key)
	return nil
}

// Swap removes deleteKey and writes setKey under one lock.
func (m *Memory) Swap(_ context.Context, deleteKey, setKey string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.slots, deleteKey)
	m.slots[setKey] = append([]byte(nil), value...)
	return nil
}

// Has reports whether key is present.
func (m *Memory) Has(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.slots[key]
	return ok
}
