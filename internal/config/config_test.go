package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadReadsSessionAndMediaSettings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := `
server:
  port: "9090"
session:
  autosave_interval: 30s
  auto_advance_delay: 2s
  grade_spatial_widgets: true
  state_backend: redis
log:
  level: debug
media:
  type: minio
  minio_bucket: quiz-media
`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "9090" || cfg.Session.StateBackend != "redis" || !cfg.Session.GradeSpatialWidgets {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.Log.Level != "debug" || cfg.Media.Type != "minio" || cfg.Media.MinioBucket != "quiz-media" {
		t.Fatalf("unexpected log/media config %+v %+v", cfg.Log, cfg.Media)
	}
	if got := TTLDuration(cfg.Session.AutoAdvanceDelay, time.Second); got != 2*time.Second {
		t.Fatalf("auto advance delay: %s", got)
	}
}

func TestTTLDurationFallsBack(t *testing.T) {
	if got := TTLDuration("", time.Minute); got != time.Minute {
		t.Fatalf("empty: %s", got)
	}
	if got := TTLDuration("soon", time.Minute); got != time.Minute {
		t.Fatalf("invalid: %s", got)
	}
}
