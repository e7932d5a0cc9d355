package app

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"canvas-quiz-service/internal/domain"
	"canvas-quiz-service/internal/metrics"
	"canvas-quiz-service/internal/schedule"
	"go.uber.org/zap"
)

// StateVersion tags persisted quiz state documents.
const StateVersion = 1

const finalSaveTimeout = 5 * time.Second

// StatePersister is the key-value contract used to save and restore quiz state. Load returns
// (nil, nil) when nothing is stored under key.
type StatePersister interface {
	Save(ctx context.Context, key string, data []byte) error
	Load(ctx context.Context, key string) ([]byte, error)
}

// SessionOptions configures a Session. Zero values fall back to the wall clock, no persistence and
// no autosave.
type SessionOptions struct {
	Key              string
	Persister        StatePersister
	Scheduler        schedule.Scheduler
	AutosaveInterval time.Duration
	Logger           *zap.Logger
}

// Session is the state store of one quiz-taking session. All reads and writes of QuizState go
// through its methods.
type Session struct {
	id            string
	key           string
	persister     StatePersister
	sched         schedule.Scheduler
	autosaveEvery time.Duration
	log           *zap.Logger

	mu           sync.RWMutex
	state        domain.QuizState
	timerGen     uint64
	stopTimer    schedule.Cancel
	autosaveGen  uint64
	stopAutosave schedule.Cancel
	closed       bool
	subscribers  map[chan domain.QuizState]struct{}
}

// NewSession returns a session holding the zero state.
func NewSession(id string, opts SessionOptions) *Session {
	if opts.Scheduler == nil {
		opts.Scheduler = schedule.NewReal()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Key == "" {
		opts.Key = StateKey(id)
	}
	return &Session{
		id:            id,
		key:           opts.Key,
		persister:     opts.Persister,
		sched:         opts.Scheduler,
		autosaveEvery: opts.AutosaveInterval,
		log:           opts.Logger.With(zap.String("session", id)),
		state:         domain.NewQuizState(),
		subscribers:   make(map[chan domain.QuizState]struct{}),
	}
}

// StateKey is the persistence key of a session's quiz state.
func StateKey(sessionID string) string {
	return "quiz:state:" + sessionID
}

// UpdateScore replaces the element's score with the latest attempt, bumps its attempt counter and
// adds maxScore to the running total.
func (s *Session) UpdateScore(elementID string, score, maxScore int) {
	if elementID == "" {
		s.log.Warn("update score without element id")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.state.Progress[elementID]
	p.Score = score
	p.Attempts++
	p.LastAttempt = s.sched.Now()
	s.state.Progress[elementID] = p

	current := 0
	for _, entry := range s.state.Progress {
		current += entry.Score
	}
	s.state.CurrentScore = current
	s.state.TotalScore += maxScore
	s.state.CompletedElements = s.state.CountCompleted()
	s.broadcastLocked()
}

// UpdateProgress sets the element's completed flag, keeping its score and attempts.
func (s *Session) UpdateProgress(elementID string, completed bool) {
	if elementID == "" {
		s.log.Warn("update progress without element id")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.state.Progress[elementID]
	p.Completed = completed
	s.state.Progress[elementID] = p
	s.state.CompletedElements = s.state.CountCompleted()
	s.broadcastLocked()
}

// SetFeedback overwrites the element's feedback.
func (s *Session) SetFeedback(elementID string, isCorrect bool, message string) {
	if elementID == "" {
		s.log.Warn("set feedback without element id")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Feedback[elementID] = domain.Feedback{IsCorrect: isCorrect, Message: message}
	s.broadcastLocked()
}

// StartQuiz stamps the start time and starts the elapsed-time counter from zero. Progress and
// feedback are kept; call ResetQuiz first for a clean slate.
func (s *Session) StartQuiz() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	now := s.sched.Now()
	s.state.StartTime = &now
	s.state.EndTime = nil
	s.state.IsTimerActive = true
	s.state.IsPaused = false
	s.state.TimeElapsed = 0
	s.armTimerLocked()
	s.armAutosaveLocked()
	s.broadcastLocked()
}

// PauseQuiz freezes the elapsed-time counter.
func (s *Session) PauseQuiz() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.StartTime == nil || s.state.EndTime != nil || s.state.IsPaused {
		return
	}
	s.state.IsPaused = true
	s.state.IsTimerActive = false
	s.disarmTimerLocked()
	s.broadcastLocked()
}

// ResumeQuiz continues counting from the frozen value. An ended quiz stays ended.
func (s *Session) ResumeQuiz() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.state.StartTime == nil || s.state.EndTime != nil || !s.state.IsPaused {
		return
	}
	s.state.IsPaused = false
	s.state.IsTimerActive = true
	s.armTimerLocked()
	s.broadcastLocked()
}

// EndQuiz stamps the end time, stops the counter and writes a final save when persistence is
// configured.
func (s *Session) EndQuiz() {
	s.mu.Lock()
	now := s.sched.Now()
	s.state.EndTime = &now
	s.state.IsTimerActive = false
	s.disarmTimerLocked()
	s.disarmAutosaveLocked()
	s.broadcastLocked()
	persist := s.persister != nil && !s.closed
	s.mu.Unlock()

	if persist {
		ctx, cancel := context.WithTimeout(context.Background(), finalSaveTimeout)
		defer cancel()
		_ = s.SaveQuizState(ctx)
	}
}

// ResetQuiz returns the state to its zero value and cancels every running timer.
func (s *Session) ResetQuiz() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disarmTimerLocked()
	s.disarmAutosaveLocked()
	s.state = domain.NewQuizState()
	s.broadcastLocked()
}

// SetTotalElements records the number of scorable elements. Unchanged counts are ignored.
func (s *Session) SetTotalElements(count int) {
	if count < 0 {
		count = 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.TotalElements == count {
		return
	}
	s.state.TotalElements = count
	s.broadcastLocked()
}

// CompletionSummary derives percentages and the formatted elapsed time.
func (s *Session) CompletionSummary() domain.CompletionSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.Summarize(s.state)
}

// Snapshot returns a deep copy of the current state.
func (s *Session) Snapshot() domain.QuizState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// Progress returns the progress entry of one element.
func (s *Session) Progress(elementID string) (domain.ElementProgress, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.state.Progress[elementID]
	return p, ok
}

type persistedState struct {
	Version int             `json:"version"`
	State   json.RawMessage `json:"state"`
}

// SaveQuizState writes the state with a fresh save timestamp. A failed save is logged and returned;
// the in-memory state stays authoritative either way.
func (s *Session) SaveQuizState(ctx context.Context) error {
	if s.persister == nil {
		return nil
	}
	s.mu.RLock()
	snapshot := s.state.Clone()
	s.mu.RUnlock()

	now := s.sched.Now()
	snapshot.LastSavedState = &now
	data, err := encodeState(snapshot)
	if err != nil {
		metrics.StateSaves.WithLabelValues("error").Inc()
		s.log.Warn("encode quiz state", zap.Error(err))
		return fmt.Errorf("encode quiz state: %w", err)
	}
	if err := s.persister.Save(ctx, s.key, data); err != nil {
		metrics.StateSaves.WithLabelValues("error").Inc()
		s.log.Warn("save quiz state failed; keeping in-memory state", zap.Error(err))
		return fmt.Errorf("save quiz state: %w", err)
	}
	metrics.StateSaves.WithLabelValues("ok").Inc()

	s.mu.Lock()
	s.state.LastSavedState = &now
	s.broadcastLocked()
	s.mu.Unlock()
	return nil
}

// LoadQuizState replaces the live state with the saved one. Missing, unparsable, wrong-version or
// incomplete documents leave the live state untouched. It never fails the caller.
func (s *Session) LoadQuizState(ctx context.Context) bool {
	if s.persister == nil {
		return false
	}
	data, err := s.persister.Load(ctx, s.key)
	if err != nil {
		metrics.StateLoads.WithLabelValues("error").Inc()
		s.log.Warn("load quiz state", zap.Error(err))
		return false
	}
	if data == nil {
		metrics.StateLoads.WithLabelValues("empty").Inc()
		return false
	}
	loaded, err := decodeState(data)
	if err != nil {
		metrics.StateLoads.WithLabelValues("invalid").Inc()
		s.log.Warn("discarding saved quiz state", zap.Error(err))
		return false
	}
	metrics.StateLoads.WithLabelValues("ok").Inc()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = loaded
	s.state.CompletedElements = s.state.CountCompleted()
	s.disarmTimerLocked()
	if s.state.IsTimerActive && !s.state.IsPaused && s.state.EndTime == nil && !s.closed {
		s.armTimerLocked()
	}
	s.broadcastLocked()
	return true
}

func encodeState(state domain.QuizState) ([]byte, error) {
	raw, err := json.Marshal(state)
	if err != nil {
		return nil, err
	}
	return json.Marshal(persistedState{Version: StateVersion, State: raw})
}

func decodeState(data []byte) (domain.QuizState, error) {
	var doc persistedState
	if err := json.Unmarshal(data, &doc); err != nil {
		return domain.QuizState{}, fmt.Errorf("%w: %v", domain.ErrInvalidState, err)
	}
	if doc.Version != StateVersion {
		return domain.QuizState{}, fmt.Errorf("%w: got %d, want %d", domain.ErrUnsupportedVersion, doc.Version, StateVersion)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(doc.State, &fields); err != nil {
		return domain.QuizState{}, fmt.Errorf("%w: %v", domain.ErrInvalidState, err)
	}
	for _, name := range domain.StateFields {
		if _, ok := fields[name]; !ok {
			return domain.QuizState{}, fmt.Errorf("%w: missing %q", domain.ErrInvalidState, name)
		}
	}
	var state domain.QuizState
	if err := json.Unmarshal(doc.State, &state); err != nil {
		return domain.QuizState{}, fmt.Errorf("%w: %v", domain.ErrInvalidState, err)
	}
	if state.Progress == nil {
		state.Progress = make(map[string]domain.ElementProgress)
	}
	if state.Feedback == nil {
		state.Feedback = make(map[string]domain.Feedback)
	}
	return state, nil
}

// Subscribe returns a channel of state snapshots, starting with the current one. The caller must
// invoke the returned cancel function to avoid leaks.
func (s *Session) Subscribe() (<-chan domain.QuizState, func()) {
	ch := make(chan domain.QuizState, 8)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	ch <- s.state.Clone()
	s.subscribers[ch] = struct{}{}
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

// Close tears the session down: timers are cancelled and subscribers released. Later ticks are
// discarded.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.disarmTimerLocked()
	s.disarmAutosaveLocked()
	for ch := range s.subscribers {
		delete(s.subscribers, ch)
		close(ch)
	}
}

func (s *Session) armTimerLocked() {
	s.disarmTimerLocked()
	gen := s.timerGen
	s.stopTimer = s.sched.Every(time.Second, func() { s.tick(gen) })
}

func (s *Session) disarmTimerLocked() {
	if s.stopTimer != nil {
		s.stopTimer()
		s.stopTimer = nil
	}
	s.timerGen++
}

func (s *Session) tick(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.timerGen || s.closed || !s.state.IsTimerActive || s.state.IsPaused {
		return
	}
	s.state.TimeElapsed++
	s.broadcastLocked()
}

func (s *Session) armAutosaveLocked() {
	s.disarmAutosaveLocked()
	if s.persister == nil || s.autosaveEvery <= 0 {
		return
	}
	gen := s.autosaveGen
	s.stopAutosave = s.sched.Every(s.autosaveEvery, func() { s.autosave(gen) })
}

func (s *Session) disarmAutosaveLocked() {
	if s.stopAutosave != nil {
		s.stopAutosave()
		s.stopAutosave = nil
	}
	s.autosaveGen++
}

func (s *Session) autosave(gen uint64) {
	s.mu.RLock()
	current := gen == s.autosaveGen && !s.closed
	s.mu.RUnlock()
	if !current {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), finalSaveTimeout)
	defer cancel()
	_ = s.SaveQuizState(ctx)
}

func (s *Session) broadcastLocked() {
	if len(s.subscribers) == 0 {
		return
	}
	snapshot := s.state.Clone()
	for ch := range s.subscribers {
		select {
		case ch <- snapshot:
		default:
			// drop the oldest queued snapshot so a slow reader never blocks a mutation
			select {
			case <-ch:
			default:
			}
			ch <- snapshot
		}
	}
}
