package itinerary

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/yungbote/itinerary-backend/internal/domain/itinerary"
	"github.com/yungbote/itinerary-backend/internal/itinerary/outline"
	"github.com/yungbote/itinerary-backend/internal/platform/logger"
)

type memStore struct {
	mu      sync.Mutex
	saved   *Saved
	saves   int
	failErr error
}

func (s *memStore) Load(ctx context.Context) (*Saved, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saved == nil {
		return nil, nil
	}
	cp := *s.saved
	cp.Document = s.saved.Document.Clone()
	return &cp, nil
}

func (s *memStore) Save(ctx context.Context, doc *domain.Document, text string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return 0, s.failErr
	}
	s.saves++
	version := 1
	if s.saved != nil {
		version = s.saved.Version + 1
	}
	s.saved = &Saved{Document: doc.Clone(), Outline: text, Version: version}
	return version, nil
}

type memMirror struct {
	mu      sync.Mutex
	text    string
	writes  int
	failErr error
}

func (m *memMirror) Read(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.text, nil
}

func (m *memMirror) Write(ctx context.Context, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return m.failErr
	}
	m.writes++
	m.text = text
	return nil
}

type recordingNotifier struct {
	mu       sync.Mutex
	versions []int
}

func (n *recordingNotifier) ItineraryUpdated(ctx context.Context, version int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.versions = append(n.versions, version)
}

func newTestCell(store Store, mirror OutlineMirror, notify UpdateNotifier) *Cell {
	return NewCell(logger.Nop(), store, mirror, notify, outline.NewSerializer(2026))
}

func TestCellCommitPersistsAndSwaps(t *testing.T) {
	store := &memStore{}
	mirror := &memMirror{}
	notify := &recordingNotifier{}
	cell := newTestCell(store, mirror, notify)

	saved, err := cell.Mutate(context.Background(), func(doc *domain.Document) (bool, error) {
		h := domain.NewStub("Freehand")
		doc.Hotel = &h
		return true, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "Freehand", saved.Hotel.PromptText)

	cur := cell.Current()
	assert.Equal(t, 1, cur.Version)
	assert.Equal(t, "# Hotel\nFreehand\n", cur.Outline)
	assert.Equal(t, "# Hotel\nFreehand\n", mirror.text)
	assert.Equal(t, []int{1}, notify.versions)
}

func TestCellUnchangedSkipsPersist(t *testing.T) {
	store := &memStore{}
	cell := newTestCell(store, nil, nil)
	_, err := cell.Mutate(context.Background(), func(doc *domain.Document) (bool, error) { return false, nil })
	require.NoError(t, err)
	assert.Zero(t, store.saves)
}

func TestCellPersistFailureKeepsState(t *testing.T) {
	store := &memStore{failErr: errors.New("disk full")}
	cell := newTestCell(store, nil, nil)
	_, err := cell.Mutate(context.Background(), func(doc *domain.Document) (bool, error) {
		doc.Notes = append(doc.Notes, "x")
		return true, nil
	})
	require.Error(t, err)
	assert.Empty(t, cell.Snapshot().Notes)
	assert.Equal(t, 0, cell.Current().Version)
}

func TestCellMirrorFailureIsNotFatal(t *testing.T) {
	store := &memStore{}
	cell := newTestCell(store, &memMirror{failErr: errors.New("bucket gone")}, nil)
	_, err := cell.Mutate(context.Background(), func(doc *domain.Document) (bool, error) {
		doc.Notes = append(doc.Notes, "x")
		return true, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, store.saves)
}

func TestCellFnErrorAborts(t *testing.T) {
	store := &memStore{}
	cell := newTestCell(store, nil, nil)
	_, err := cell.Mutate(context.Background(), func(doc *domain.Document) (bool, error) {
		doc.Notes = append(doc.Notes, "x")
		return true, errors.New("nope")
	})
	require.Error(t, err)
	assert.Zero(t, store.saves)
	assert.Empty(t, cell.Snapshot().Notes)
}

func TestCellSnapshotIsPrivate(t *testing.T) {
	cell := newTestCell(&memStore{}, nil, nil)
	snap := cell.Snapshot()
	snap.Notes = append(snap.Notes, "leak")
	assert.Empty(t, cell.Snapshot().Notes)
}

func TestCellSerializesConcurrentWriters(t *testing.T) {
	store := &memStore{}
	cell := newTestCell(store, nil, nil)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := cell.Mutate(context.Background(), func(doc *domain.Document) (bool, error) {
				doc.Notes = append(doc.Notes, "n")
				return true, nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Len(t, cell.Snapshot().Notes, 20)
	assert.Equal(t, 20, cell.Current().Version)
}
