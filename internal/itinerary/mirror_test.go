package itinerary

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/yungbote/itinerary-backend/internal/pkg/errors"
)

func TestFileMirror(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trip", "itinerary.txt")
	m := NewFileMirror(path)
	ctx := context.Background()

	text, err := m.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, "", text)

	require.NoError(t, m.Write(ctx, "# Hotel\nFreehand\n"))
	require.NoError(t, m.Write(ctx, "# Hotel\nAce\n"))
	text, err = m.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, "# Hotel\nAce\n", text)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

type memObjects struct {
	objects map[string][]byte
	types   map[string]string
}

func (m *memObjects) ReadObject(_ context.Context, key string) ([]byte, error) {
	data, ok := m.objects[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", pkgerrors.ErrNotFound, key)
	}
	return data, nil
}

func (m *memObjects) WriteObject(_ context.Context, key string, data []byte, contentType string) error {
	m.objects[key] = data
	m.types[key] = contentType
	return nil
}

func (m *memObjects) Close() error { return nil }

func TestBucketMirror(t *testing.T) {
	objs := &memObjects{objects: map[string][]byte{}, types: map[string]string{}}
	m := NewBucketMirror(objs, "trips/nyc.txt")
	ctx := context.Background()

	text, err := m.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, "", text)

	require.NoError(t, m.Write(ctx, "# Notes\n- a\n"))
	text, err = m.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, "# Notes\n- a\n", text)
	assert.Equal(t, "text/plain; charset=utf-8", objs.types["trips/nyc.txt"])
}
