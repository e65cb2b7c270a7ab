package itinerary

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	pkgerrors "github.com/yungbote/itinerary-backend/internal/pkg/errors"
	"github.com/yungbote/itinerary-backend/internal/platform/gcp"
)

// FileMirror keeps the outline in a local text file.
type FileMirror struct {
	Path string
}

func NewFileMirror(path string) *FileMirror {
	return &FileMirror{Path: path}
}

// Read returns "" when the file does not exist yet.
func (m *FileMirror) Read(ctx context.Context) (string, error) {
	data, err := os.ReadFile(m.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", err
	}
	return string(data), nil
}

// Write replaces the file through a temp file and rename, so readers never see half an
// outline.
func (m *FileMirror) Write(ctx context.Context, text string) error {
	dir := filepath.Dir(m.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".outline-*")
	if err != nil {
		return err
	}
	name := tmp.Name()
	if _, err := tmp.WriteString(text); err != nil {
		_ = tmp.Close()
		_ = os.Remove(name)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(name)
		return err
	}
	if err := os.Rename(name, m.Path); err != nil {
		_ = os.Remove(name)
		return fmt.Errorf("replace %s: %w", m.Path, err)
	}
	return nil
}

// BucketMirror keeps the outline as one object in a bucket.
type BucketMirror struct {
	store gcp.ObjectStore
	key   string
}

func NewBucketMirror(store gcp.ObjectStore, key string) *BucketMirror {
	return &BucketMirror{store: store, key: key}
}

// Read returns "" when the object does not exist yet.
func (m *BucketMirror) Read(ctx context.Context) (string, error) {
	data, err := m.store.ReadObject(ctx, m.key)
	if err != nil {
		if errors.Is(err, pkgerrors.ErrNotFound) {
			return "", nil
		}
		return "", err
	}
	return string(data), nil
}

func (m *BucketMirror) Write(ctx context.Context, text string) error {
	return m.store.WriteObject(ctx, m.key, []byte(text), "text/plain; charset=utf-8")
}
