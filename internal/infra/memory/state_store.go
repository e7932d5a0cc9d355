package memory

import (
	"context"
	"sync"
)

// StateStore keeps saved quiz state in process memory. It implements app.StatePersister.
type StateStore struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

func NewStateStore() *StateStore {
	return &StateStore{docs: make(map[string][]byte)}
}

func (s *StateStore) Save(_ context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[key] = append([]byte(nil), data...)
	return nil
}

// Load returns (nil, nil) for a key that was never saved.
func (s *StateStore) Load(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.docs[key]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), data...), nil
}
