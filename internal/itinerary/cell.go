package itinerary

import (
	"context"
	"errors"
	"fmt"
	"sync"

	domain "github.com/yungbote/itinerary-backend/internal/domain/itinerary"
	"github.com/yungbote/itinerary-backend/internal/itinerary/outline"
	pkgerrors "github.com/yungbote/itinerary-backend/internal/pkg/errors"
	"github.com/yungbote/itinerary-backend/internal/platform/logger"
)

// Saved is what the store holds for a trip.
type Saved struct {
	Document *domain.Document
	Outline  string
	Version  int
}

// Store persists the authoritative document. Load returns nil, nil when nothing is stored.
type Store interface {
	Load(ctx context.Context) (*Saved, error)
	Save(ctx context.Context, doc *domain.Document, outlineText string) (int, error)
}

// OutlineMirror keeps a copy of the outline text somewhere people can read it.
type OutlineMirror interface {
	Read(ctx context.Context) (string, error)
	Write(ctx context.Context, text string) error
}

// UpdateNotifier hears about every committed change.
type UpdateNotifier interface {
	ItineraryUpdated(ctx context.Context, version int)
}

// CommitFunc computes the next document from a private copy of the current one. It returns
// nil to leave the document unchanged, and may return the outline text to persist; an empty
// text means the outline is regenerated from the document.
type CommitFunc func(cur *domain.Document) (next *domain.Document, outlineText string, err error)

// Cell owns the single authoritative document. Every change runs under one lock as
// clone, compute, persist, swap; a failed persist leaves the previous state in place.
type Cell struct {
	log        *logger.Logger
	store      Store
	mirror     OutlineMirror
	notify     UpdateNotifier
	serializer *outline.Serializer

	writeMu sync.Mutex

	mu      sync.RWMutex
	doc     *domain.Document
	outline string
	version int
}

// NewCell starts empty; call Restore with what the store holds. mirror and notify may be nil.
func NewCell(baseLog *logger.Logger, store Store, mirror OutlineMirror, notify UpdateNotifier, serializer *outline.Serializer) *Cell {
	return &Cell{
		log:        baseLog.With("component", "ItineraryCell"),
		store:      store,
		mirror:     mirror,
		notify:     notify,
		serializer: serializer,
		doc:        domain.NewDocument(),
	}
}

// Restore replaces the in-memory state without persisting it.
func (c *Cell) Restore(saved *Saved) {
	if saved == nil || saved.Document == nil {
		return
	}
	doc := saved.Document.Clone()
	doc.Normalize()
	text := saved.Outline
	if text == "" {
		text = c.serializer.Serialize(doc)
	}
	c.mu.Lock()
	c.doc, c.outline, c.version = doc, text, saved.Version
	c.mu.Unlock()
}

// Snapshot returns a private copy of the current document.
func (c *Cell) Snapshot() *domain.Document {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.doc.Clone()
}

// Current returns a private copy of the document with its outline and version.
func (c *Cell) Current() Saved {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Saved{Document: c.doc.Clone(), Outline: c.outline, Version: c.version}
}

// Commit applies fn and persists the result. It returns the committed state, or the current
// one when fn made no change. When another writer got to the store first, the cell reloads
// what it holds and runs fn once more against that.
func (c *Cell) Commit(ctx context.Context, fn CommitFunc) (Saved, error) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	saved, changed, err := c.commitOnce(ctx, fn)
	if errors.Is(err, pkgerrors.ErrConflict) {
		c.log.Warn("Itinerary changed in the store, reloading", "error", err)
		if err := c.reload(ctx); err != nil {
			c.log.Error("Reloading itinerary failed", "error", err)
			return Saved{}, fmt.Errorf("reload itinerary: %w", err)
		}
		saved, changed, err = c.commitOnce(ctx, fn)
		if err == nil && !changed && c.notify != nil {
			c.notify.ItineraryUpdated(ctx, saved.Version)
		}
	}
	if err != nil {
		return Saved{}, err
	}
	return saved, nil
}

func (c *Cell) commitOnce(ctx context.Context, fn CommitFunc) (Saved, bool, error) {
	cur := c.Snapshot()
	next, text, err := fn(cur)
	if err != nil {
		return Saved{}, false, err
	}
	if next == nil {
		return c.Current(), false, nil
	}
	next.Normalize()
	if text == "" {
		text = c.serializer.Serialize(next)
	}

	version, err := c.store.Save(ctx, next, text)
	if err != nil {
		if !errors.Is(err, pkgerrors.ErrConflict) {
			c.log.Error("Persisting itinerary failed", "error", err)
		}
		return Saved{}, false, fmt.Errorf("persist itinerary: %w", err)
	}

	c.mu.Lock()
	c.doc, c.outline, c.version = next, text, version
	c.mu.Unlock()

	if c.mirror != nil {
		if err := c.mirror.Write(ctx, text); err != nil {
			c.log.Warn("Outline mirror write failed", "error", err)
		}
	}
	if c.notify != nil {
		c.notify.ItineraryUpdated(ctx, version)
	}
	return Saved{Document: next.Clone(), Outline: text, Version: version}, true, nil
}

// reload replaces the in-memory state with what the store holds now.
func (c *Cell) reload(ctx context.Context) error {
	saved, err := c.store.Load(ctx)
	if err != nil {
		return err
	}
	if saved == nil || saved.Document == nil {
		return fmt.Errorf("%w: stored itinerary is gone", pkgerrors.ErrConflict)
	}
	c.Restore(saved)
	return nil
}

// Mutate edits the document in place. fn reports whether anything changed; nothing is
// persisted otherwise.
func (c *Cell) Mutate(ctx context.Context, fn func(doc *domain.Document) (bool, error)) (*domain.Document, error) {
	saved, err := c.Commit(ctx, func(cur *domain.Document) (*domain.Document, string, error) {
		changed, err := fn(cur)
		if err != nil || !changed {
			return nil, "", err
		}
		return cur, "", nil
	})
	if err != nil {
		return nil, err
	}
	return saved.Document, nil
}
