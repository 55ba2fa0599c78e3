package storage

import (
	"context"
	"sync"
)

// MemoryBackend is an in-memory Backend implementation.
//
// It keeps every value in a map guarded by a RWMutex and copies blobs on
// the way in and out, so callers can't mutate stored state through a
// retained slice. This is the default backend: a browser tab's
// localStorage surface, minus the browser.
type MemoryBackend struct {
	mu     sync.RWMutex
	values map[string][]byte
	closed bool
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		values: make(map[string][]byte),
	}
}

// Save stores a copy of data under key.
func (m *MemoryBackend) Save(ctx context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrBackendClosed{}
	}

	buf := make([]byte, len(data))
	copy(buf, data)
	m.values[key] = buf
	return nil
}

// Load returns a copy of the value for key, or (nil, nil) if absent.
func (m *MemoryBackend) Load(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrBackendClosed{}
	}

	data, ok := m.values[key]
	if !ok {
		return nil, nil
	}

	buf := make([]byte, len(data))
	copy(buf, data)
	return buf, nil
}

// Delete removes key if present.
func (m *MemoryBackend) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrBackendClosed{}
	}

	delete(m.values, key)
	return nil
}

// Keys returns all stored keys.
func (m *MemoryBackend) Keys(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrBackendClosed{}
	}

	keys := make([]string, 0, len(m.values))
	for k := range m.values {
		keys = append(keys, k)
	}
	return keys, nil
}

// Len returns the number of stored keys.
func (m *MemoryBackend) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.values)
}

// Close marks the backend closed and drops all values.
func (m *MemoryBackend) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true
	m.values = nil
	return nil
}
