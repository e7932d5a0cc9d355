package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
)

func TestStateStoreRoundTripsDocuments(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	store := NewStateStore(newClient(mr), time.Hour)
	ctx := context.Background()

	data, err := store.Load(ctx, "quiz:state:s1")
	if err != nil || data != nil {
		t.Fatalf("expected missing key to load as nil, got %q, %v", data, err)
	}

	if err := store.Save(ctx, "quiz:state:s1", []byte(`{"version":1}`)); err != nil {
		t.Fatalf("save: %v", err)
	}
	if mr.TTL("quiz:state:s1") != time.Hour {
		t.Fatalf("expected ttl on saved state")
	}
	data, err = store.Load(ctx, "quiz:state:s1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if string(data) != `{"version":1}` {
		t.Fatalf("unexpected document %q", data)
	}
}

func TestStateStoreReportsConnectionErrors(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	client := newClient(mr)
	mr.Close()

	store := NewStateStore(client, 0)
	if _, err := store.Load(context.Background(), "quiz:state:s1"); err == nil {
		t.Fatalf("expected error from closed server")
	}
	if err := store.Save(context.Background(), "quiz:state:s1", []byte("x")); err == nil {
		t.Fatalf("expected save error from closed server")
	}
}
