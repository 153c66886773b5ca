package clientstore

import (
	"context"
	"sync"
)

// MemoryStore keeps values in process memory.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]map[Key]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: map[string]map[Key]string{}}
}

func (m *MemoryStore) Get(_ context.Context, session string, key Key) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[session][key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (m *MemoryStore) Set(_ context.Context, session string, key Key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	bucket, ok := m.data[session]
	if !ok {
		bucket = map[Key]string{}
		m.data[session] = bucket
	}
	bucket[key] = value
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, session string, key Key) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data[session], key)
	return nil
}

func (m *MemoryStore) Close() error { return nil }
