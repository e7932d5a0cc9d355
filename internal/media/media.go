package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
)

// Kind is the coarse classification of an uploaded blob.
type Kind string

const (
	KindImage Kind = "image"
	KindVideo Kind = "video"
	KindAudio Kind = "audio"
)

var ErrUnsupportedMedia = errors.New("unsupported media type")

// Classify maps a declared media type such as "image/png" to its kind by prefix.
func Classify(contentType string) (Kind, error) {
	major, _, _ := strings.Cut(strings.ToLower(strings.TrimSpace(contentType)), "/")
	switch Kind(major) {
	case KindImage, KindVideo, KindAudio:
		return Kind(major), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedMedia, contentType)
}

// Asset is an ingested blob: a displayable URI for element content plus its kind.
type Asset struct {
	URI  string `json:"uri"`
	Key  string `json:"key"`
	Kind Kind   `json:"kind"`
}

// BlobStore persists uploaded blobs.
type BlobStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) // returns canonical key
	URL(ctx context.Context, key string) (string, error)
}

// Ingestor classifies and stores media uploads.
type Ingestor struct {
	store BlobStore
	newID func() string
}

func NewIngestor(store BlobStore) *Ingestor {
	return &Ingestor{store: store, newID: uuid.NewString}
}

// Ingest stores the blob under a fresh key that keeps the original file extension.
func (i *Ingestor) Ingest(ctx context.Context, filename, contentType string, r io.Reader, size int64) (Asset, error) {
	kind, err := Classify(contentType)
	if err != nil {
		return Asset{}, err
	}
	key := string(kind) + "/" + i.newID() + strings.ToLower(path.Ext(filename))
	key, err = i.store.Put(ctx, key, r, size, contentType)
	if err != nil {
		return Asset{}, fmt.Errorf("store media: %w", err)
	}
	uri, err := i.store.URL(ctx, key)
	if err != nil {
		return Asset{}, fmt.Errorf("media url: %w", err)
	}
	return Asset{URI: uri, Key: key, Kind: kind}, nil
}
