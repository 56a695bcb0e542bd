package store

import (
	"context"
	"sync"

	"github.com/serroba/vidproxy/internal/kv"
)

// MemoryStore is an in-memory implementation of kv.Store.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[kv.Key]string
}

// NewMemoryStore creates a new in-memory key-value store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[kv.Key]string),
	}
}

func (m *MemoryStore) Get(_ context.Context, key kv.Key) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, ok := m.entries[key]
	if !ok {
		return "", kv.ErrNotFound
	}

	return value, nil
}

func (m *MemoryStore) Set(_ context.Context, key kv.Key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[key] = value

	return nil
}

func (m *MemoryStore) SetIfAbsent(_ context.Context, key kv.Key, value string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.entries[key]; ok {
		return false, nil
	}

	m.entries[key] = value

	return true, nil
}

func (m *MemoryStore) Ping(_ context.Context) error {
	return nil
}

// Len returns the number of stored entries.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.entries)
}

// Compile-time check.
var _ kv.Store = (*MemoryStore)(nil)
