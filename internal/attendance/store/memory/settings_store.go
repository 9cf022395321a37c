package memory

import (
	"context"
	"sync"
)

type SettingsStore struct {
	mu   sync.RWMutex
	vals map[string]string
}

// NewSettingsStore returns a store holding a copy of initial.
func NewSettingsStore(initial map[string]string) *SettingsStore {
	v := make(map[string]string, len(initial))
	for k, val := range initial {
		v[k] = val
	}
	return &SettingsStore{vals: v}
}

func (s *SettingsStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.vals[key]
	return v, ok, nil
}

func (s *SettingsStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vals[key] = value
	return nil
}
