package repo

import (
	"context"
	"sync"
)

// memoryKV is an in-process KeyValueStore. Nothing survives the process;
// it backs unit tests and the "memory" SLOT_BACKEND.
type memoryKV struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewMemoryKV constructs an empty in-process KeyValueStore.
func NewMemoryKV() KeyValueStore {
	return &memoryKV{data: make(map[string]string)}
}

func (m *memoryKV) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memoryKV) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}
