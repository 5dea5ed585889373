package store

import (
	"context"
	"sync"
)

// Memory is an in-memory Collection. It backs the file store and stands in
// for Postgres in tests.
type Memory[T Record] struct {
	mu    sync.RWMutex
	items map[string]T
	order []string
}

func NewMemory[T Record]() *Memory[T] {
	return &Memory[T]{items: make(map[string]T)}
}

func (m *Memory[T]) Count(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.order), nil
}

func (m *Memory[T]) Exists(ctx context.Context, rec T) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.items[rec.IdentityKey()]
	return ok, nil
}

func (m *Memory[T]) Insert(ctx context.Context, rec T) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.insertLocked(rec)
	return nil
}

func (m *Memory[T]) InsertAll(ctx context.Context, recs []T) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rec := range recs {
		m.insertLocked(rec)
	}
	return nil
}

func (m *Memory[T]) DropAll(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = make(map[string]T)
	m.order = nil
	return nil
}

func (m *Memory[T]) ReplaceAll(ctx context.Context, recs []T) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = make(map[string]T)
	m.order = nil
	for _, rec := range recs {
		m.insertLocked(rec)
	}
	return nil
}

func (m *Memory[T]) ListAll(ctx context.Context) ([]T, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]T, 0, len(m.order))
	for _, key := range m.order {
		out = append(out, m.items[key])
	}
	return out, nil
}

func (m *Memory[T]) insertLocked(rec T) {
	key := rec.IdentityKey()
	if _, ok := m.items[key]; ok {
		return
	}
	m.items[key] = rec
	m.order = append(m.order, key)
}
