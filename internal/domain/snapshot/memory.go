package snapshot

import (
	"context"
	"sync"
)

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

// Save stores an encoded copy of s.
func (m *MemoryStore) Save(_ context.Context, key string, s Snapshot) error {
	b, err := s.Encode()
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.data[key] = b
	m.mu.Unlock()
	return nil
}

// Load decodes the snapshot stored under key.
func (m *MemoryStore) Load(_ context.Context, key string) (Snapshot, error) {
	m.mu.RLock()
	b, ok := m.data[key]
	m.mu.RUnlock()
	if !ok {
		return Snapshot{}, NotFound(key)
	}
	return Decode(b)
}

// Delete removes key. Deleting a missing key is not an error.
func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.data, key)
	m.mu.Unlock()
	return nil
}

// Backend names the store in metrics and logs.
func (m *MemoryStore) Backend() string { return "memory" }
