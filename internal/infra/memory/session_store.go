package memory

import (
	"sync"

	"canvas-quiz-service/internal/app"
)

// SessionStore is an in-memory implementation of app.SessionRepository.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*app.Orchestrator
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*app.Orchestrator),
	}
}

func (s *SessionStore) GetOrCreate(id string, create func() *app.Orchestrator) (*app.Orchestrator, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o, ok := s.sessions[id]; ok {
		return o, false
	}
	o := create()
	s.sessions[id] = o
	return o, true
}

func (s *SessionStore) Get(id string) (*app.Orchestrator, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.sessions[id]
	return o, ok
}

func (s *SessionStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}
