package store

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
)

type memEntry struct {
	entry Entry
	body  []byte
}

// MemoryStore is an in-process, map-backed Provider with no
// persistence. Grounded on the teacher's core.MemCache
// (core/cache-provider.go): a mutex-guarded map, generalized to store a
// structured Entry plus its body instead of raw response bytes.
type MemoryStore struct {
	mu sync.RWMutex
	db map[string]memEntry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{db: make(map[string]memEntry)}
}

func (m *MemoryStore) Match(_ context.Context, key string) (*Entry, io.ReadCloser, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.db[key]
	if !ok {
		return nil, nil, ErrNotFound
	}
	entry := e.entry
	return &entry, io.NopCloser(bytes.NewReader(e.body)), nil
}

func (m *MemoryStore) Put(_ context.Context, key string, entry *Entry, body io.Reader) error {
	b, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.db[key] = memEntry{entry: *entry, body: b}
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.db, key)
	return nil
}

func (m *MemoryStore) Keys(_ context.Context, prefix string, cb func(string)) error {
	m.mu.RLock()
	keys := make([]string, 0, len(m.db))
	for k := range m.db {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	m.mu.RUnlock()
	for _, k := range keys {
		cb(k)
	}
	return nil
}

func (m *MemoryStore) Close() error { return nil }
