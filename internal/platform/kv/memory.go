package kv

import (
	"context"
	"sync"
)

type memoryStore struct {
	items map[string]string
	mutex sync.RWMutex
}

// NewMemory builds an in-memory key-value store.
func NewMemory() Store {
	return &memoryStore{
		items: make(map[string]string),
	}
}

func (s *memoryStore) Get(_ context.Context, key string) (string, error) {
	s.mutex.RLock()
	value, ok := s.items[key]
	s.mutex.RUnlock()
	if !ok {
		return "", ErrNotFound
	}
	return value, nil
}

func (s *memoryStore) Set(_ context.Context, key, value string) error {
	s.mutex.Lock()
	s.items[key] = value
	s.mutex.Unlock()
	return nil
}

func (s *memoryStore) Delete(_ context.Context, key string) error {
	s.mutex.Lock()
	delete(s.items, key)
	s.mutex.Unlock()
	return nil
}

func (s *memoryStore) Has(_ context.Context, key string) (bool, error) {
	s.mutex.RLock()
	_, ok := s.items[key]
	s.mutex.RUnlock()
	return ok, nil
}

func (s *memoryStore) Stats(_ context.Context) (map[string]any, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return map[string]any{
		"type":  "memory",
		"total": len(s.items),
	}, nil
}

func (s *memoryStore) Close(_ context.Context) error {
	return nil
}
