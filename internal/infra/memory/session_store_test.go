package memory

import (
	"testing"

	"canvas-quiz-service/internal/app"
	"canvas-quiz-service/internal/domain"
)

func TestSessionStoreLifecycle(t *testing.T) {
	store := NewSessionStore()
	calls := 0
	create := func() *app.Orchestrator {
		calls++
		return app.NewOrchestrator("s1", sampleDefinition(), app.NewSession("s1", app.SessionOptions{}), app.OrchestratorOptions{})
	}

	o, created := store.GetOrCreate("s1", create)
	if o == nil || !created {
		t.Fatalf("expected runtime to be created")
	}
	again, created := store.GetOrCreate("s1", create)
	if created || again != o || calls != 1 {
		t.Fatalf("expected existing runtime reused, calls=%d", calls)
	}
	if _, ok := store.Get("s1"); !ok {
		t.Fatalf("expected runtime present")
	}

	store.Delete("s1")
	if _, ok := store.Get("s1"); ok {
		t.Fatalf("expected runtime removed")
	}
	o.Close()
	if o.Mode() != domain.ModeAuthoring {
		t.Fatalf("unexpected mode %s", o.Mode())
	}
}
