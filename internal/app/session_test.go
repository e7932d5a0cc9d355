package app_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"canvas-quiz-service/internal/app"
	"canvas-quiz-service/internal/infra/memory"
	"canvas-quiz-service/internal/schedule"
)

var epoch = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

func newManualSession(t *testing.T, persister app.StatePersister) (*app.Session, *schedule.Manual) {
	t.Helper()
	clock := schedule.NewManual(epoch)
	s := app.NewSession("s1", app.SessionOptions{Persister: persister, Scheduler: clock})
	t.Cleanup(s.Close)
	return s, clock
}

func TestCompletedElementsTracksProgress(t *testing.T) {
	s, _ := newManualSession(t, nil)

	steps := []func(){
		func() { s.UpdateScore("a", 50, 100) },
		func() { s.UpdateProgress("a", true) },
		func() { s.UpdateProgress("b", true) },
		func() { s.UpdateScore("b", 100, 100) },
		func() { s.UpdateProgress("a", false) },
		func() { s.UpdateProgress("c", false) },
		func() { s.UpdateProgress("", true) },
	}
	for i, step := range steps {
		step()
		state := s.Snapshot()
		if state.CompletedElements != state.CountCompleted() {
			t.Fatalf("step %d: completedElements %d, want %d", i, state.CompletedElements, state.CountCompleted())
		}
	}
	if got := s.Snapshot().CompletedElements; got != 1 {
		t.Fatalf("expected 1 completed element, got %d", got)
	}
}

func TestUpdateScoreKeepsLatestAttemptAndAccumulatesTotal(t *testing.T) {
	s, _ := newManualSession(t, nil)

	s.UpdateScore("mc", 0, 100)
	s.UpdateScore("mc", 100, 100)
	s.UpdateScore("cw", 40, 100)

	state := s.Snapshot()
	if state.CurrentScore != 140 || state.TotalScore != 300 {
		t.Fatalf("expected 140/300, got %d/%d", state.CurrentScore, state.TotalScore)
	}
	if p := state.Progress["mc"]; p.Score != 100 || p.Attempts != 2 || !p.LastAttempt.Equal(epoch) {
		t.Fatalf("unexpected progress %+v", p)
	}
}

func TestSummaryPercentageWithoutElements(t *testing.T) {
	s, _ := newManualSession(t, nil)
	s.UpdateProgress("a", true)
	s.UpdateProgress("b", true)

	if pct := s.CompletionSummary().CompletionPercentage; pct != 0 {
		t.Fatalf("expected 0%% without total elements, got %v", pct)
	}

	s.SetTotalElements(3)
	summary := s.CompletionSummary()
	if summary.CompletionPercentage != 67 {
		t.Fatalf("expected rounded 67%%, got %v", summary.CompletionPercentage)
	}
}

func TestResetClearsEverything(t *testing.T) {
	s, clock := newManualSession(t, nil)
	s.StartQuiz()
	s.UpdateScore("a", 100, 100)
	s.UpdateProgress("a", true)
	s.SetFeedback("a", true, "Correct!")
	clock.Advance(5 * time.Second)

	s.ResetQuiz()
	state := s.Snapshot()
	if state.CurrentScore != 0 || state.TotalScore != 0 || state.TimeElapsed != 0 || state.CompletedElements != 0 {
		t.Fatalf("expected zero counters, got %+v", state)
	}
	if len(state.Progress) != 0 || len(state.Feedback) != 0 {
		t.Fatalf("expected empty maps, got %+v", state)
	}
	if clock.Pending() != 0 {
		t.Fatalf("expected timers cancelled, %d pending", clock.Pending())
	}
	clock.Advance(3 * time.Second)
	if s.Snapshot().TimeElapsed != 0 {
		t.Fatalf("timer kept running after reset")
	}
}

func TestPauseFreezesElapsedTime(t *testing.T) {
	s, clock := newManualSession(t, nil)
	s.StartQuiz()
	clock.Advance(3 * time.Second)

	s.PauseQuiz()
	clock.Advance(10 * time.Second)
	if got := s.Snapshot().TimeElapsed; got != 3 {
		t.Fatalf("expected frozen at 3, got %d", got)
	}

	s.ResumeQuiz()
	clock.Advance(2 * time.Second)
	if got := s.Snapshot().TimeElapsed; got != 5 {
		t.Fatalf("expected 5 after resume, got %d", got)
	}

	s.EndQuiz()
	s.ResumeQuiz()
	clock.Advance(4 * time.Second)
	state := s.Snapshot()
	if state.TimeElapsed != 5 || state.EndTime == nil || state.IsTimerActive {
		t.Fatalf("ended quiz should stay stopped, got %+v", state)
	}
}

func TestCloseCancelsTimer(t *testing.T) {
	clock := schedule.NewManual(epoch)
	s := app.NewSession("s1", app.SessionOptions{Scheduler: clock})
	s.StartQuiz()
	clock.Advance(time.Second)
	s.Close()

	if clock.Pending() != 0 {
		t.Fatalf("expected no pending tasks after close, got %d", clock.Pending())
	}
	if got := s.Snapshot().TimeElapsed; got != 1 {
		t.Fatalf("expected 1s elapsed, got %d", got)
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	store := memory.NewStateStore()
	s, clock := newManualSession(t, store)
	s.StartQuiz()
	s.UpdateScore("a", 100, 100)
	s.UpdateProgress("a", true)
	clock.Advance(2 * time.Second)

	if err := s.SaveQuizState(context.Background()); err != nil {
		t.Fatalf("save: %v", err)
	}
	if s.Snapshot().LastSavedState == nil {
		t.Fatalf("expected lastSavedState after save")
	}

	restored, clock2 := newManualSession(t, store)
	if !restored.LoadQuizState(context.Background()) {
		t.Fatalf("expected saved state to load")
	}
	state := restored.Snapshot()
	if state.CurrentScore != 100 || state.CompletedElements != 1 || state.TimeElapsed != 2 {
		t.Fatalf("unexpected restored state %+v", state)
	}

	// an active timer is re-armed by the load
	clock2.Advance(time.Second)
	if got := restored.Snapshot().TimeElapsed; got != 3 {
		t.Fatalf("expected timer to resume after load, got %d", got)
	}
}

func TestLoadRejectsIncompleteDocuments(t *testing.T) {
	store := memory.NewStateStore()
	s, _ := newManualSession(t, store)
	s.SetTotalElements(2)
	s.UpdateScore("a", 50, 100)
	before, _ := json.Marshal(s.Snapshot())

	docs := []string{
		`not json`,
		`{"version":1,"state":{"currentScore":5}}`,
		`{"version":9,"state":{}}`,
		`{"currentScore":0,"totalScore":0}`,
	}
	for _, doc := range docs {
		_ = store.Save(context.Background(), app.StateKey("s1"), []byte(doc))
		if s.LoadQuizState(context.Background()) {
			t.Fatalf("expected %q to be rejected", doc)
		}
		after, _ := json.Marshal(s.Snapshot())
		if !bytes.Equal(before, after) {
			t.Fatalf("state changed after rejected load of %q", doc)
		}
	}
}

func TestLoadWithoutSavedState(t *testing.T) {
	s, _ := newManualSession(t, memory.NewStateStore())
	if s.LoadQuizState(context.Background()) {
		t.Fatalf("expected nothing to load")
	}
}

type failingStore struct{}

func (failingStore) Save(context.Context, string, []byte) error { return errors.New("disk full") }
func (failingStore) Load(context.Context, string) ([]byte, error) {
	return nil, errors.New("unreachable")
}

func TestSaveFailureKeepsState(t *testing.T) {
	s, _ := newManualSession(t, failingStore{})
	s.UpdateScore("a", 100, 100)

	if err := s.SaveQuizState(context.Background()); err == nil {
		t.Fatalf("expected save error")
	}
	state := s.Snapshot()
	if state.LastSavedState != nil || state.CurrentScore != 100 {
		t.Fatalf("state changed by failed save: %+v", state)
	}
	if s.LoadQuizState(context.Background()) {
		t.Fatalf("expected load failure to report false")
	}
}

func TestAutosaveAndFinalSave(t *testing.T) {
	store := memory.NewStateStore()
	clock := schedule.NewManual(epoch)
	s := app.NewSession("s1", app.SessionOptions{Persister: store, Scheduler: clock, AutosaveInterval: 30 * time.Second})
	defer s.Close()

	s.StartQuiz()
	s.UpdateScore("a", 100, 100)
	clock.Advance(30 * time.Second)
	data, _ := store.Load(context.Background(), app.StateKey("s1"))
	if data == nil {
		t.Fatalf("expected autosave after interval")
	}

	s.UpdateScore("b", 100, 100)
	s.EndQuiz()
	if clock.Pending() != 0 {
		t.Fatalf("expected end to cancel timers, %d pending", clock.Pending())
	}
	data, _ = store.Load(context.Background(), app.StateKey("s1"))
	if !bytes.Contains(data, []byte(`"currentScore":200`)) {
		t.Fatalf("expected final save with both scores, got %s", data)
	}
}

func TestSetTotalElementsIsIdempotent(t *testing.T) {
	s, _ := newManualSession(t, nil)
	states, cancel := s.Subscribe()
	defer cancel()
	<-states

	s.SetTotalElements(4)
	<-states
	s.SetTotalElements(4)
	select {
	case <-states:
		t.Fatalf("unchanged total should not broadcast")
	default:
	}
	s.SetTotalElements(-2)
	if got := (<-states).TotalElements; got != 0 {
		t.Fatalf("expected negative count clamped to 0, got %d", got)
	}
}
