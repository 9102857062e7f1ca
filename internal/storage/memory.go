package storage

import (
	"context"
	"sync"
)

// Memory is an in-process Adapter backed by a map. Used for tests and for
// ephemeral (guest) sessions where nothing should outlive the process.
//
// Thread-safety: guarded by a mutex so tests may exercise it from multiple
// goroutines, even though production use is single-writer.
type Memory struct {
	mu     sync.Mutex
	values map[string]string
}

// NewMemory creates an empty in-memory adapter.
func NewMemory() *Memory {
	return &Memory{values: make(map[string]string)}
}

// Get implements Adapter.
func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok, nil
}

// Set implements Adapter.
func (m *Memory) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

// Remove implements Adapter.
func (m *Memory) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}
