package redis

import (
	"context"
	"sync"
	"time"

	"canvas-quiz-service/internal/app"
	"github.com/redis/go-redis/v9"
)

// SessionStore is a Redis-aware implementation of SessionRepository.
// Notes:
//   - Runtimes stay in a local map; their timers and subscribers are process-local.
//   - Redis holds a liveness key per open session; IsLive reads it so an instance opening a session
//     can tell it is already held elsewhere.
//   - Quiz state itself is shared through StateStore, so a session reopened elsewhere resumes.
type SessionStore struct {
	client   *redis.Client
	ttl      time.Duration
	mu       sync.RWMutex
	sessions map[string]*app.Orchestrator
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{
		client:   client,
		ttl:      ttl,
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
	// best-effort liveness marker
	_ = s.client.Set(context.Background(), s.key(id), "1", s.ttl).Err()
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
	if _, ok := s.sessions[id]; !ok {
		return
	}
	delete(s.sessions, id)
	_ = s.client.Del(context.Background(), s.key(id)).Err()
}

func (s *SessionStore) key(id string) string {
	return "quiz:session:" + id
}

// IsLive reports whether any instance currently holds the session open.
func (s *SessionStore) IsLive(ctx context.Context, id string) (bool, error) {
	n, err := s.client.Exists(ctx, s.key(id)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
