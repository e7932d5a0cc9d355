package cli

import (
	"context"
	"testing"

	"canvas-quiz-service/internal/config"
	"canvas-quiz-service/internal/infra/memory"
)

func TestSampleQuizzesAreValid(t *testing.T) {
	for id, def := range sampleQuizzes() {
		if def.ID != id {
			t.Fatalf("quiz keyed %s has id %s", id, def.ID)
		}
		if err := def.Validate(); err != nil {
			t.Fatalf("sample quiz %s: %v", id, err)
		}
	}
}

func TestNewStatePersister(t *testing.T) {
	var cfg config.Config
	p, err := newStatePersister(cfg, nil, nil)
	if err != nil {
		t.Fatalf("default backend: %v", err)
	}
	if _, ok := p.(*memory.StateStore); !ok {
		t.Fatalf("expected memory store by default, got %T", p)
	}

	for _, backend := range []string{"redis", "postgres", "etcd"} {
		cfg.Session.StateBackend = backend
		if _, err := newStatePersister(cfg, nil, nil); err == nil {
			t.Fatalf("%s: expected error without a client", backend)
		}
	}
}

func TestNewBlobStore(t *testing.T) {
	var cfg config.Config
	cfg.Media.LocalPath = t.TempDir()
	store, dir, err := newBlobStore(context.Background(), cfg)
	if err != nil {
		t.Fatalf("local store: %v", err)
	}
	if store == nil || dir != cfg.Media.LocalPath {
		t.Fatalf("expected local store rooted at %s, got %q", cfg.Media.LocalPath, dir)
	}

	cfg.Media.Type = "ftp"
	if _, _, err := newBlobStore(context.Background(), cfg); err == nil {
		t.Fatalf("expected unknown media type error")
	}
}
