package cache

import (
	"sync"

	"vectorraster/internal/future"
)

// MemoryStore is an unbounded, append-only Store.
type MemoryStore[V any] struct {
	mu    sync.RWMutex
	items map[string]*future.Future[V]
}

func NewMemoryStore[V any]() *MemoryStore[V] {
	return &MemoryStore[V]{
		items: make(map[string]*future.Future[V]),
	}
}

var _ Store[int] = (*MemoryStore[int])(nil)

func (s *MemoryStore[V]) Get(key string) (*future.Future[V], bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.items[key]
	return f, ok
}

func (s *MemoryStore[V]) GetOrCreate(key string, create func() *future.Future[V]) (*future.Future[V], bool) {
	if f, ok := s.Get(key); ok {
		return f, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Another caller may have won between the two locks.
	if f, ok := s.items[key]; ok {
		return f, false
	}

	f := create()
	s.items[key] = f
	return f, true
}

func (s *MemoryStore[V]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.items)
}
