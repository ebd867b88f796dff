package store

import (
	"context"
	"sync"
)

type LocalStore struct {
	counters map[string]int64
	mu       sync.RWMutex
}

func NewLocalStore() *LocalStore {
	return &LocalStore{
		counters: make(map[string]int64),
	}
}

func (s *LocalStore) Increment(_ context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters[key]++
	return s.counters[key], nil
}

func (s *LocalStore) GetCounter(_ context.Context, key string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.counters[key], nil
}

func (s *LocalStore) Counters(_ context.Context) (map[string]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	res := make(map[string]int64, len(s.counters))
	for k, v := range s.counters {
		res[k] = v
	}
	return res, nil
}
