package memory

import (
	"context"
	"sync"

	"plantwatch/internal/storage"
)

// KV is an in-memory store for demo runs and tests.
type KV struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewKV constructs an empty store.
func NewKV() *KV {
	return &KV{data: make(map[string][]byte)}
}

// Load returns a copy of the payload stored under key.
func (s *KV) Load(ctx context.Context, key string) (storage.Loaded, error) {
	_ = ctx
	if key == "" {
		return storage.Loaded{}, storage.ErrEmptyKey
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.data[key]
	if !ok {
		return storage.Loaded{State: storage.StateAbsent}, nil
	}
	return storage.Loaded{State: storage.StateValid, Data: append([]byte(nil), value...)}, nil
}

// Save overwrites the payload under key.
func (s *KV) Save(ctx context.Context, key string, data []byte) error {
	_ = ctx
	if key == "" {
		return storage.ErrEmptyKey
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = append([]byte(nil), data...)
	return nil
}

// Delete removes key. Missing keys are ignored.
func (s *KV) Delete(ctx context.Context, key string) error {
	_ = ctx
	if key == "" {
		return storage.ErrEmptyKey
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}
