package itinerary

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	repos "github.com/yungbote/itinerary-backend/internal/data/repos/itinerary"
	"github.com/yungbote/itinerary-backend/internal/data/repos/testutil"
	domain "github.com/yungbote/itinerary-backend/internal/domain/itinerary"
	"github.com/yungbote/itinerary-backend/internal/itinerary/enrichment"
	"github.com/yungbote/itinerary-backend/internal/itinerary/outline"
	pkgerrors "github.com/yungbote/itinerary-backend/internal/pkg/errors"
)

func TestDBStoreRoundTrip(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)
	store := NewDBStore(log, repos.NewTripDocumentRepo(db, log), "nyc")
	ctx := context.Background()

	saved, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, saved)

	doc := domain.NewDocument()
	i := doc.EnsureDay(jan(14))
	it := domain.Item{PromptText: "MoMA", Status: domain.StatusPrimary}
	it.SetEnrichment(&domain.Enrichment{Name: "Museum of Modern Art", Waypoints: []string{}})
	doc.Days[i].Items = append(doc.Days[i].Items, it)
	doc.Normalize()

	v, err := store.Save(ctx, doc, "# Jan 14 (Wed)\n- MoMA\n")
	require.NoError(t, err)
	assert.Equal(t, 1, v)
	v, err = store.Save(ctx, doc, "# Jan 14 (Wed)\n- MoMA\n")
	require.NoError(t, err)
	assert.Equal(t, 2, v)

	fresh := NewDBStore(log, repos.NewTripDocumentRepo(db, log), "nyc")
	saved, err = fresh.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, 2, saved.Version)
	assert.Equal(t, "# Jan 14 (Wed)\n- MoMA\n", saved.Outline)
	require.Len(t, saved.Document.Days, 1)
	got := saved.Document.Days[0].Items[0]
	assert.Equal(t, "Museum of Modern Art", got.DisplayText)
	require.NotNil(t, got.Enrichment)
	assert.Equal(t, "Museum of Modern Art", got.Enrichment.Name)
}

func TestDBStoreDetectsConcurrentWriter(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)
	ctx := context.Background()
	a := NewDBStore(log, repos.NewTripDocumentRepo(db, log), "nyc")
	b := NewDBStore(log, repos.NewTripDocumentRepo(db, log), "nyc")

	_, err := a.Save(ctx, domain.NewDocument(), "")
	require.NoError(t, err)
	_, err = b.Save(ctx, domain.NewDocument(), "")
	assert.True(t, errors.Is(err, pkgerrors.ErrConflict))
}

func TestCellReloadsAfterAnotherWriter(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)
	ctx := context.Background()
	store := NewDBStore(log, repos.NewTripDocumentRepo(db, log), "nyc")
	notify := &recordingNotifier{}
	cell := NewCell(log, store, nil, notify, outline.NewSerializer(2026))
	svc := NewService(log, cell, store, nil, outline.NewParser(2026), nil, nil)
	require.NoError(t, svc.Bootstrap(ctx))

	saved, err := svc.ReplaceOutline(ctx, "# Jan 14 (Wed)\n- MoMA\n")
	require.NoError(t, err)
	assert.Equal(t, 1, saved.Version)

	other := NewDBStore(log, repos.NewTripDocumentRepo(db, log), "nyc")
	theirs, err := other.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, theirs)
	v, err := other.Save(ctx, theirs.Document, theirs.Outline)
	require.NoError(t, err)
	assert.Equal(t, 2, v)

	saved, err = svc.ReplaceOutline(ctx, "# Jan 14 (Wed)\n- MoMA\n- 7pm: Carbone\n")
	require.NoError(t, err)
	assert.Equal(t, 3, saved.Version)
	require.Len(t, saved.Document.Days, 1)
	assert.Len(t, saved.Document.Days[0].Items, 2)

	saved, err = svc.ReplaceOutline(ctx, "# Jan 14 (Wed)\n- MoMA\n")
	require.NoError(t, err)
	assert.Equal(t, 4, saved.Version)

	// the other writer adds the hotel, then this cell tries to add the same one
	theirs, err = other.Load(ctx)
	require.NoError(t, err)
	h := domain.NewStub("Freehand")
	theirs.Document.Hotel = &h
	v, err = other.Save(ctx, theirs.Document, "")
	require.NoError(t, err)
	assert.Equal(t, 5, v)

	doc, err := cell.Mutate(ctx, func(d *domain.Document) (bool, error) {
		if d.Hotel != nil && d.Hotel.PromptText == "Freehand" {
			return false, nil
		}
		h := domain.NewStub("Freehand")
		d.Hotel = &h
		return true, nil
	})
	require.NoError(t, err)
	require.NotNil(t, doc.Hotel)
	assert.Equal(t, "Freehand", doc.Hotel.PromptText)
	assert.Equal(t, 5, cell.Current().Version)
	assert.Equal(t, []int{1, 3, 4, 5}, notify.versions)

	doc, err = cell.Mutate(ctx, func(d *domain.Document) (bool, error) {
		d.Notes = append(d.Notes, "bring cash")
		return true, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"bring cash"}, doc.Notes)
	assert.Equal(t, 6, cell.Current().Version)
}

func TestDBCacheLookupAndStore(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)
	cache := NewDBCache(log, repos.NewEnrichmentCacheRepo(db, log))
	ctx := context.Background()

	ix, err := cache.Lookup(ctx, []string{"MoMA"})
	require.NoError(t, err)
	assert.Empty(t, ix)

	require.NoError(t, cache.Store(ctx, enrichment.Index{
		"MoMA":   {Name: "Museum of Modern Art", Address: "11 W 53rd St", Waypoints: []string{}},
		"ignore": nil,
	}))
	ix, err = cache.Lookup(ctx, []string{"MoMA", "ignore"})
	require.NoError(t, err)
	require.Len(t, ix, 1)
	rec, ok := ix.Get("MoMA")
	require.True(t, ok)
	assert.Equal(t, "11 W 53rd St", rec.Address)
}
