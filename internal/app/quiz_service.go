package app

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"canvas-quiz-service/internal/domain"
	"canvas-quiz-service/internal/metrics"
	"canvas-quiz-service/internal/schedule"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SessionRepository abstracts where live quiz runtimes are kept (in-memory, Redis-marked, etc).
type SessionRepository interface {
	// GetOrCreate returns the runtime for id, building it with create when absent. The bool reports
	// whether create ran.
	GetOrCreate(id string, create func() *Orchestrator) (*Orchestrator, bool)
	Get(id string) (*Orchestrator, bool)
	Delete(id string)
}

// QuizRepository loads and stores quiz definitions (through a cache and a backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.QuizDefinition, error)
	SaveQuiz(ctx context.Context, def domain.QuizDefinition) error
}

// ServiceOptions carries the runtime settings applied to every opened session.
type ServiceOptions struct {
	Persister           StatePersister
	Scheduler           schedule.Scheduler
	AutosaveInterval    time.Duration
	AutoAdvanceDelay    time.Duration
	GradeSpatialWidgets bool
	// NewRand seeds per-session randomness. Defaults to a time-seeded source.
	NewRand func() *rand.Rand
	Logger  *zap.Logger
}

// QuizService contains the quiz authoring and quiz taking use cases.
type QuizService struct {
	sessions SessionRepository
	quizzes  QuizRepository
	opts     ServiceOptions
	log      *zap.Logger

	mu    sync.Mutex
	refs  map[string]int
	locks *keyedMutex
}

// LivenessChecker is implemented by session repositories that can tell whether a session is held
// open by another instance.
type LivenessChecker interface {
	IsLive(ctx context.Context, id string) (bool, error)
}

func NewQuizService(store SessionRepository, quizzes QuizRepository, opts ServiceOptions) *QuizService {
	if opts.Scheduler == nil {
		opts.Scheduler = schedule.NewReal()
	}
	if opts.NewRand == nil {
		opts.NewRand = func() *rand.Rand { return rand.New(rand.NewSource(time.Now().UnixNano())) }
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &QuizService{
		sessions: store,
		quizzes:  quizzes,
		opts:     opts,
		log:      opts.Logger,
		refs:     make(map[string]int),
		locks:    newKeyedMutex(),
	}
}

// Open returns the runtime of sessionID, creating it when needed. A new runtime starts from the
// stored definition of quizID, or from a blank quiz when quizID is empty, and picks up any saved
// quiz state. An empty sessionID gets a fresh id.
func (s *QuizService) Open(ctx context.Context, sessionID, quizID string) (*Orchestrator, error) {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	if o, ok := s.sessions.Get(sessionID); ok {
		return o, nil
	}

	def := domain.QuizDefinition{Version: domain.DefinitionVersion, ID: uuid.NewString(), QuizType: domain.QuizClassic}
	if quizID != "" {
		loaded, err := s.quizzes.GetQuiz(ctx, quizID)
		if err != nil {
			return nil, err
		}
		def = loaded
	}

	if lc, ok := s.sessions.(LivenessChecker); ok {
		if live, err := lc.IsLive(ctx, sessionID); err == nil && live {
			s.log.Warn("session is open on another instance", zap.String("session", sessionID))
		}
	}

	o, created := s.sessions.GetOrCreate(sessionID, func() *Orchestrator {
		return s.newRuntime(sessionID, def)
	})
	if created {
		metrics.ActiveSessions.Inc()
		if o.LoadState(ctx) {
			s.log.Info("restored saved quiz state", zap.String("session", sessionID))
		}
	}
	return o, nil
}

func (s *QuizService) newRuntime(sessionID string, def domain.QuizDefinition) *Orchestrator {
	session := NewSession(sessionID, SessionOptions{
		Persister:        s.opts.Persister,
		Scheduler:        s.opts.Scheduler,
		AutosaveInterval: s.opts.AutosaveInterval,
		Logger:           s.log,
	})
	return NewOrchestrator(sessionID, def, session, OrchestratorOptions{
		Scheduler:           s.opts.Scheduler,
		AutoAdvanceDelay:    s.opts.AutoAdvanceDelay,
		GradeSpatialWidgets: s.opts.GradeSpatialWidgets,
		Rand:                s.opts.NewRand(),
		Logger:              s.log,
	})
}

// Get returns an open runtime.
func (s *QuizService) Get(sessionID string) (*Orchestrator, error) {
	o, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return o, nil
}

// Acquire opens a runtime on behalf of a connected client. Each Acquire must be paired with Release.
// Connects and disconnects are serialized per session id only.
func (s *QuizService) Acquire(ctx context.Context, sessionID, quizID string) (*Orchestrator, error) {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	unlock := s.locks.lock(sessionID)
	defer unlock()

	o, err := s.Open(ctx, sessionID, quizID)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.refs[o.ID()]++
	s.mu.Unlock()
	return o, nil
}

// Release drops a client's hold on a runtime and closes it when the last client leaves.
func (s *QuizService) Release(ctx context.Context, sessionID string) {
	unlock := s.locks.lock(sessionID)
	defer unlock()

	s.mu.Lock()
	s.refs[sessionID]--
	if s.refs[sessionID] > 0 {
		s.mu.Unlock()
		return
	}
	delete(s.refs, sessionID)
	s.mu.Unlock()
	s.Close(ctx, sessionID)
}

// Close saves the session state (best effort) and tears the runtime down.
func (s *QuizService) Close(ctx context.Context, sessionID string) {
	o, ok := s.sessions.Get(sessionID)
	if !ok {
		return
	}
	s.sessions.Delete(sessionID)
	_ = o.Session().SaveQuizState(ctx)
	o.Close()
	metrics.ActiveSessions.Dec()
}

// ExportQuiz serializes the runtime's quiz definition.
func (s *QuizService) ExportQuiz(_ context.Context, sessionID string) ([]byte, error) {
	o, err := s.Get(sessionID)
	if err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(o.Definition(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("export quiz: %w", err)
	}
	return data, nil
}

// ImportQuiz replaces the runtime's pages with a serialized definition.
func (s *QuizService) ImportQuiz(_ context.Context, sessionID string, data []byte) error {
	o, err := s.Get(sessionID)
	if err != nil {
		return err
	}
	def, err := domain.DecodeDefinition(data)
	if err != nil {
		return err
	}
	return o.LoadDefinition(def)
}

// GetQuiz fetches a stored quiz definition.
func (s *QuizService) GetQuiz(ctx context.Context, quizID string) (domain.QuizDefinition, error) {
	return s.quizzes.GetQuiz(ctx, quizID)
}

// PublishQuiz validates and stores a quiz definition.
func (s *QuizService) PublishQuiz(ctx context.Context, def domain.QuizDefinition) error {
	if err := def.Validate(); err != nil {
		return err
	}
	return s.quizzes.SaveQuiz(ctx, def)
}

// PublishSession stores the current definition of an open runtime.
func (s *QuizService) PublishSession(ctx context.Context, sessionID string) (domain.QuizDefinition, error) {
	o, err := s.Get(sessionID)
	if err != nil {
		return domain.QuizDefinition{}, err
	}
	def := o.Definition()
	if err := s.PublishQuiz(ctx, def); err != nil {
		return domain.QuizDefinition{}, err
	}
	return def, nil
}

// keyedMutex hands out one mutex per key and forgets it once nobody holds or waits for it.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	sync.Mutex
	users int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*keyLock)}
}

func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &keyLock{}
		k.locks[key] = l
	}
	l.users++
	k.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		k.mu.Lock()
		l.users--
		if l.users == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
