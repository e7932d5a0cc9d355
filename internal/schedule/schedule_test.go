package schedule

import (
	"testing"
	"time"
)

func TestManualFiresInOrderAndCancels(t *testing.T) {
	m := NewManual(time.Unix(0, 0))

	var fired []string
	m.After(2*time.Second, func() { fired = append(fired, "after") })
	ticks := 0
	cancel := m.Every(time.Second, func() { ticks++ })

	m.Advance(3 * time.Second)
	if ticks != 3 {
		t.Fatalf("expected 3 ticks, got %d", ticks)
	}
	if len(fired) != 1 {
		t.Fatalf("expected one-shot to fire once, got %v", fired)
	}

	cancel()
	cancel()
	m.Advance(5 * time.Second)
	if ticks != 3 {
		t.Fatalf("expected ticks to stop after cancel, got %d", ticks)
	}
	if m.Pending() != 0 {
		t.Fatalf("expected no pending tasks, got %d", m.Pending())
	}
	if got := m.Now(); !got.Equal(time.Unix(8, 0)) {
		t.Fatalf("expected clock at 8s, got %v", got)
	}
}

func TestManualCallbackMaySchedule(t *testing.T) {
	m := NewManual(time.Unix(0, 0))
	fired := 0
	m.After(time.Second, func() {
		fired++
		m.After(time.Second, func() { fired++ })
	})
	m.Advance(2 * time.Second)
	if fired != 2 {
		t.Fatalf("expected nested task to fire within the window, got %d", fired)
	}
}

func TestRealEveryCancel(t *testing.T) {
	r := NewReal()
	ticks := make(chan struct{}, 16)
	cancel := r.Every(5*time.Millisecond, func() { ticks <- struct{}{} })
	select {
	case <-ticks:
	case <-time.After(time.Second):
		t.Fatalf("expected a tick")
	}
	cancel()
	cancel()
}
