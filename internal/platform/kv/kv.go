// Package kv provides the key-value persistence medium backing the clinic
// stores. Each logical collection is persisted as one JSON value under a
// well-known key. It defines the Store interface, an in-memory
// implementation suitable for testing and the memory backend, and
// file-, SQLite-, and Postgres-backed drivers.
package kv

import "sync"

// Store is the persistence medium. Implementations never interpret the
// payload; callers own the JSON encoding.
type Store interface {
	// Load returns the value stored under key. The second return is false
	// when the key is absent.
	Load(key string) ([]byte, bool, error)
	// Save writes value under key, replacing any previous value.
	Save(key string, value []byte) error
	// Delete removes key. Deleting an absent key is not an error.
	Delete(key string) error
}

// MemoryStore is a map-backed Store for tests and the memory backend.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (m *MemoryStore) Load(key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	cp := make([]byte, len(v))
	copy(cp, v)
	return cp, true, nil
}

func (m *MemoryStore) Save(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]byte, len(value))
	copy(cp, value)
	m.data[key] = cp
	return nil
}

func (m *MemoryStore) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}
