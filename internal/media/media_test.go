package media

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestClassifyByPrefix(t *testing.T) {
	cases := map[string]Kind{
		"image/png":              KindImage,
		"IMAGE/JPEG":             KindImage,
		"video/mp4":              KindVideo,
		"audio/mpeg; codecs=mp3": KindAudio,
		" audio/ogg":             KindAudio,
	}
	for contentType, want := range cases {
		got, err := Classify(contentType)
		if err != nil {
			t.Fatalf("classify %q: %v", contentType, err)
		}
		if got != want {
			t.Fatalf("classify %q: got %s want %s", contentType, got, want)
		}
	}

	for _, bad := range []string{"", "application/pdf", "text/plain", "imagepng"} {
		if _, err := Classify(bad); !errors.Is(err, ErrUnsupportedMedia) {
			t.Fatalf("expected unsupported for %q, got %v", bad, err)
		}
	}
}

func TestIngestStoresBlobOnDisk(t *testing.T) {
	store, err := NewFSStore(t.TempDir(), "/media")
	if err != nil {
		t.Fatalf("fs store: %v", err)
	}
	ing := NewIngestor(store)
	ing.newID = func() string { return "fixed" }

	asset, err := ing.Ingest(context.Background(), "Map.PNG", "image/png", strings.NewReader("pixels"), 6)
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if asset.Kind != KindImage || asset.Key != "image/fixed.png" || asset.URI != "/media/image/fixed.png" {
		t.Fatalf("unexpected asset %+v", asset)
	}

	rc, err := store.Open(asset.Key)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	if string(data) != "pixels" {
		t.Fatalf("unexpected blob %q", data)
	}
}

func TestIngestRejectsUnknownTypes(t *testing.T) {
	store, err := NewFSStore(t.TempDir(), "")
	if err != nil {
		t.Fatalf("fs store: %v", err)
	}
	if _, err := NewIngestor(store).Ingest(context.Background(), "doc.pdf", "application/pdf", strings.NewReader("x"), 1); !errors.Is(err, ErrUnsupportedMedia) {
		t.Fatalf("expected unsupported media, got %v", err)
	}
}

func TestFSStoreKeepsKeysInsideBase(t *testing.T) {
	base := t.TempDir()
	store, err := NewFSStore(base, "")
	if err != nil {
		t.Fatalf("fs store: %v", err)
	}
	p, err := store.path("../../etc/passwd")
	if err != nil {
		t.Fatalf("path: %v", err)
	}
	if !strings.HasPrefix(p, base) {
		t.Fatalf("path escaped base: %s", p)
	}
}
