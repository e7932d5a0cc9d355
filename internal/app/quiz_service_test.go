package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"canvas-quiz-service/internal/app"
	"canvas-quiz-service/internal/domain"
	"canvas-quiz-service/internal/infra/memory"
	"canvas-quiz-service/internal/schedule"
)

func newTestService(persister app.StatePersister) (*app.QuizService, *schedule.Manual) {
	clock := schedule.NewManual(epoch)
	loader := memory.NewStaticQuizLoader(map[string]domain.QuizDefinition{
		"quiz-1": definition([]domain.Element{choice("q1")}, []domain.Element{choice("q2")}),
	})
	service := app.NewQuizService(memory.NewSessionStore(), memory.NewQuizRepository(loader, time.Minute), app.ServiceOptions{
		Persister: persister,
		Scheduler: clock,
	})
	return service, clock
}

func TestOpenReusesRuntime(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(nil)

	o, err := service.Open(ctx, "s1", "quiz-1")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer service.Close(ctx, "s1")
	if len(o.Pages()) != 2 {
		t.Fatalf("expected quiz pages loaded, got %d", len(o.Pages()))
	}
	again, err := service.Open(ctx, "s1", "")
	if err != nil || again != o {
		t.Fatalf("expected same runtime, err=%v", err)
	}
	if got, err := service.Get("s1"); err != nil || got != o {
		t.Fatalf("get: %v", err)
	}

	if _, err := service.Open(ctx, "s2", "missing"); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected quiz not found, got %v", err)
	}
	if _, err := service.Get("s2"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected session not found, got %v", err)
	}
}

func TestOpenRestoresSavedState(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStateStore()
	service, _ := newTestService(store)

	o, err := service.Open(ctx, "s1", "quiz-1")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	_ = o.EnterPreview()
	if _, err := o.Interact("q1", app.SelectOptions{OptionIDs: []string{"b"}}); err != nil {
		t.Fatalf("interact: %v", err)
	}
	service.Close(ctx, "s1")

	reopened, err := service.Open(ctx, "s1", "quiz-1")
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer service.Close(ctx, "s1")
	if reopened == o {
		t.Fatalf("expected a fresh runtime after close")
	}
	state := reopened.Session().Snapshot()
	if state.CurrentScore != 100 || state.CompletedElements != 1 {
		t.Fatalf("expected saved progress restored, got %+v", state)
	}
}

func TestAcquireReleaseClosesOnLastClient(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(nil)

	first, err := service.Acquire(ctx, "", "")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	id := first.ID()
	if id == "" {
		t.Fatalf("expected generated session id")
	}
	if _, err := service.Acquire(ctx, id, ""); err != nil {
		t.Fatalf("acquire 2: %v", err)
	}

	service.Release(ctx, id)
	if _, err := service.Get(id); err != nil {
		t.Fatalf("expected runtime kept for remaining client: %v", err)
	}
	service.Release(ctx, id)
	if _, err := service.Get(id); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected runtime closed, got %v", err)
	}
}

func TestExportImportQuiz(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(nil)

	if _, err := service.Open(ctx, "src", "quiz-1"); err != nil {
		t.Fatalf("open: %v", err)
	}
	defer service.Close(ctx, "src")
	data, err := service.ExportQuiz(ctx, "src")
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	dst, err := service.Open(ctx, "dst", "")
	if err != nil {
		t.Fatalf("open blank: %v", err)
	}
	defer service.Close(ctx, "dst")
	if err := service.ImportQuiz(ctx, "dst", data); err != nil {
		t.Fatalf("import: %v", err)
	}
	def := dst.Definition()
	if def.ID != "quiz-1" || len(def.Pages) != 2 || def.ScorableCount() != 2 {
		t.Fatalf("unexpected imported definition %+v", def)
	}

	bad := []byte(`{"version":1,"id":"x","quizType":"classic","pages":[{"id":"p","elements":[{"id":"e","type":"text","x":0,"y":0,"width":1,"height":1,"content":{"question":"?"}}]}]}`)
	if err := service.ImportQuiz(ctx, "dst", bad); !errors.Is(err, domain.ErrContentMismatch) {
		t.Fatalf("expected content mismatch, got %v", err)
	}
	if err := service.ImportQuiz(ctx, "dst", []byte(`{"version":3}`)); !errors.Is(err, domain.ErrUnsupportedVersion) {
		t.Fatalf("expected unsupported version, got %v", err)
	}
}

func TestPublishSessionStoresDefinition(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(nil)

	o, err := service.Open(ctx, "s1", "")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer service.Close(ctx, "s1")
	if _, err := o.AddElement(0, domain.ElementCrossword, 0, 0); err != nil {
		t.Fatalf("add element: %v", err)
	}

	def, err := service.PublishSession(ctx, "s1")
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	stored, err := service.GetQuiz(ctx, def.ID)
	if err != nil {
		t.Fatalf("get published: %v", err)
	}
	if stored.ScorableCount() != 1 {
		t.Fatalf("expected crossword stored, got %+v", stored)
	}
}

// gatedQuizzes blocks GetQuiz until release is closed.
type gatedQuizzes struct {
	entered chan struct{}
	release chan struct{}
}

func (g gatedQuizzes) GetQuiz(ctx context.Context, quizID string) (domain.QuizDefinition, error) {
	close(g.entered)
	<-g.release
	return definition([]domain.Element{choice("q1")}), nil
}

func (g gatedQuizzes) SaveQuiz(context.Context, domain.QuizDefinition) error { return nil }

func TestAcquireDoesNotWaitOnOtherSessions(t *testing.T) {
	ctx := context.Background()
	quizzes := gatedQuizzes{entered: make(chan struct{}), release: make(chan struct{})}
	service := app.NewQuizService(memory.NewSessionStore(), quizzes, app.ServiceOptions{
		Scheduler: schedule.NewManual(epoch),
	})

	slowDone := make(chan error, 1)
	go func() {
		_, err := service.Acquire(ctx, "slow", "quiz-1")
		slowDone <- err
	}()
	<-quizzes.entered

	fastDone := make(chan error, 1)
	go func() {
		_, err := service.Acquire(ctx, "fast", "")
		fastDone <- err
	}()
	select {
	case err := <-fastDone:
		if err != nil {
			t.Fatalf("acquire fast: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("acquire of an unrelated session waited on a slow quiz load")
	}
	service.Release(ctx, "fast")

	close(quizzes.release)
	if err := <-slowDone; err != nil {
		t.Fatalf("acquire slow: %v", err)
	}
	service.Release(ctx, "slow")
	if _, err := service.Get("slow"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected slow session closed, got %v", err)
	}
}
