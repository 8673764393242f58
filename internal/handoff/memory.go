package handoff

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// entry is one stored value, kept as its JSON encoding so readers never share
// maps with writers.
type entry struct {
	key  string
	data []byte
}

// memStore is a thread-safe in-memory key/value store.
type memStore[V any] struct {
	mu      sync.RWMutex
	data    map[string]V
	keyFunc func(V) string
}

func newMemStore[V any](keyFunc func(V) string) *memStore[V] {
	return &memStore[V]{data: make(map[string]V), keyFunc: keyFunc}
}

func (s *memStore[V]) set(v V) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[s.keyFunc(v)] = v
}

func (s *memStore[V]) get(key string) (V, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	return v, ok
}

func (s *memStore[V]) delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
}

// MemoryStore keeps a suite in process memory. It is mostly useful for tests
// and for the single-process bridge.
type MemoryStore struct {
	suite string
	store *memStore[entry]
}

func NewMemoryStore(suite string) *MemoryStore {
	return &MemoryStore{
		suite: suite,
		store: newMemStore(func(e entry) string { return e.key }),
	}
}

func (m *MemoryStore) Set(_ context.Context, key string, value map[string]any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	m.store.set(entry{key: key, data: data})
	return nil
}

func (m *MemoryStore) Get(_ context.Context, key string) (map[string]any, error) {
	e, ok := m.store.get(key)
	if !ok {
		return nil, fmt.Errorf("%s/%s: %w", m.suite, key, ErrNotFound)
	}
	var v map[string]any
	if err := json.Unmarshal(e.data, &v); err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	return v, nil
}

func (m *MemoryStore) Remove(_ context.Context, key string) error {
	m.store.delete(key)
	return nil
}

func (m *MemoryStore) Close() error { return nil }
