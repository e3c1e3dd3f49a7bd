// ABOUTME: Durable key/value storage used to persist session state across restarts
// ABOUTME: Defines the Store contract and an in-memory implementation for tests

package store

import (
	"errors"
	"sync"
)

// ErrNotFound is returned by Get when the key has no value
var ErrNotFound = errors.New("store: key not found")

// Batch groups writes that must be applied together.
// Keys in Delete are removed after the Set entries are written.
type Batch struct {
	Set    map[string][]byte
	Delete []string
}

// Store is a key/value store that survives process restarts.
// Write applies a whole batch atomically: either every entry lands or none do.
type Store interface {
	Get(key string) ([]byte, error)
	Write(b Batch) error
}

// Memory is an in-process Store. It is safe for concurrent use.
type Memory struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemory creates an empty in-memory store
func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

// Get returns a copy of the value stored under key
func (m *Memory) Get(key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

// Write applies the batch under a single lock
func (m *Memory) Write(b Batch) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for k, v := range b.Set {
		m.data[k] = append([]byte(nil), v...)
	}
	for _, k := range b.Delete {
		delete(m.data, k)
	}
	return nil
}

// Len returns the number of stored keys
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}
