// Package respcache stores raw provider responses keyed by the exact request url.
// Entries are never expired or invalidated.
package respcache

import (
	"context"
	"sync"
)

// Store is the response cache capability injected into clients.
type Store interface {
	// Get returns the cached response for key and whether it was found.
	Get(ctx context.Context, key string) (string, bool, error)
	Contains(ctx context.Context, key string) (bool, error)
	// Put persists value under key, overwriting any previous value.
	Put(ctx context.Context, key, value string) error
}

// Memory is an in-process Store.
type Memory struct {
	mutex   sync.Mutex
	entries map[string]string
}

func NewMemory() *Memory {
	return &Memory{entries: map[string]string{}}
}

func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	value, ok := m.entries[key]
	return value, ok, nil
}

func (m *Memory) Contains(ctx context.Context, key string) (bool, error) {
	_, ok, err := m.Get(ctx, key)
	return ok, err
}

func (m *Memory) Put(_ context.Context, key, value string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.entries[key] = value
	return nil
}

func (m *Memory) Len() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return len(m.entries)
}
