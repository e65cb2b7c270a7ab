package itinerary

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/yungbote/itinerary-backend/internal/domain/itinerary"
	"github.com/yungbote/itinerary-backend/internal/itinerary/enrichment"
	"github.com/yungbote/itinerary-backend/internal/itinerary/outline"
	pkgerrors "github.com/yungbote/itinerary-backend/internal/pkg/errors"
	"github.com/yungbote/itinerary-backend/internal/platform/logger"
)

type recordingQueue struct {
	mu   sync.Mutex
	docs []*domain.Document
}

func (q *recordingQueue) Schedule(doc *domain.Document) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.docs = append(q.docs, doc)
}

func (q *recordingQueue) count() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.docs)
}

type fixture struct {
	svc    *Service
	cell   *Cell
	store  *memStore
	mirror *memMirror
	queue  *recordingQueue
}

func newFixture(t *testing.T, cache enrichment.Cache) *fixture {
	t.Helper()
	store := &memStore{}
	mirror := &memMirror{}
	queue := &recordingQueue{}
	cell := newTestCell(store, mirror, nil)
	svc := NewService(logger.Nop(), cell, store, mirror, outline.NewParser(2026), cache, queue)
	return &fixture{svc: svc, cell: cell, store: store, mirror: mirror, queue: queue}
}

func jan(d int) civil.Date { return civil.Date{Year: 2026, Month: time.January, Day: d} }

const twoDays = `# Jan 14 (Wed) - Arrival
- 7pm: Carbone
- fallback: Joe's Pizza

# Jan 15 (Thu)
- morning: MoMA
`

func TestReplaceOutlineKeepsRawTextAndSchedules(t *testing.T) {
	f := newFixture(t, nil)
	text := "# Jan 14 (Wed) - Arrival\n- 7pm: Carbone\n\n\n# Some comment\n"
	saved, err := f.svc.ReplaceOutline(context.Background(), text)
	require.NoError(t, err)
	assert.Equal(t, text, saved.Outline)
	assert.Equal(t, text, f.mirror.text)
	require.Len(t, saved.Document.Days, 1)
	assert.Equal(t, 1, f.queue.count())
}

func TestReplaceOutlineInvalidDateLeavesState(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.svc.ReplaceOutline(context.Background(), twoDays)
	require.NoError(t, err)

	_, err = f.svc.ReplaceOutline(context.Background(), "# Feb 31 (Tue)\n- nope\n")
	require.Error(t, err)
	var de *outline.InvalidDateError
	assert.True(t, errors.As(err, &de))
	assert.True(t, errors.Is(err, pkgerrors.ErrInvalidArgument))

	text, version := f.svc.Outline()
	assert.Equal(t, twoDays, text)
	assert.Equal(t, 1, version)
}

func TestReplaceOutlineCarriesEnrichment(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.svc.ReplaceOutline(context.Background(), twoDays)
	require.NoError(t, err)
	_, err = f.cell.Mutate(context.Background(), func(doc *domain.Document) (bool, error) {
		doc.Days[0].Items[0].SetEnrichment(&domain.Enrichment{Name: "Carbone", Address: "181 Thompson St"})
		return true, nil
	})
	require.NoError(t, err)

	saved, err := f.svc.ReplaceOutline(context.Background(), "# Jan 14 (Wed)\n- MoMA\n- 8pm: Carbone\n")
	require.NoError(t, err)
	items := saved.Document.Days[0].Items
	assert.Nil(t, items[0].Enrichment)
	require.NotNil(t, items[1].Enrichment)
	assert.Equal(t, "181 Thompson St", items[1].Enrichment.Address)
}

func TestReplaceOutlineFillsFromCache(t *testing.T) {
	f := newFixture(t, staticCache{"MoMA": {Name: "Museum of Modern Art", Address: "11 W 53rd St"}})
	saved, err := f.svc.ReplaceOutline(context.Background(), twoDays)
	require.NoError(t, err)
	assert.Equal(t, "Museum of Modern Art", saved.Document.Days[1].Items[0].DisplayText)
}

func TestAddItemFromLineAndFields(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.svc.ReplaceOutline(context.Background(), twoDays)
	require.NoError(t, err)

	saved, err := f.svc.AddItem(context.Background(), jan(14), ItemInput{Line: "- 9pm optional: Comedy Cellar"})
	require.NoError(t, err)
	items := saved.Document.Days[0].Items
	require.Len(t, items, 3)
	assert.Equal(t, domain.StatusOptional, items[2].Status)
	assert.Equal(t, "9pm", items[2].Time)
	assert.Contains(t, saved.Outline, "- 9pm optional: Comedy Cellar\n")

	pos := 0
	saved, err = f.svc.AddItem(context.Background(), jan(16), ItemInput{PromptText: "Brooklyn Bridge walk", Time: "morning", Position: &pos})
	require.NoError(t, err)
	require.Len(t, saved.Document.Days, 3)
	assert.Equal(t, "Fri", saved.Document.Days[2].DayOfWeek)
	assert.Equal(t, domain.TimeVague, saved.Document.Days[2].Items[0].TimeType)

	_, err = f.svc.AddItem(context.Background(), jan(16), ItemInput{})
	assert.True(t, errors.Is(err, pkgerrors.ErrInvalidArgument))
	_, err = f.svc.AddItem(context.Background(), jan(16), ItemInput{PromptText: "x", Status: "maybe"})
	assert.True(t, errors.Is(err, pkgerrors.ErrInvalidArgument))
}

func TestUpdateItemTextDropsEnrichment(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.svc.ReplaceOutline(context.Background(), twoDays)
	require.NoError(t, err)
	_, err = f.cell.Mutate(context.Background(), func(doc *domain.Document) (bool, error) {
		doc.Days[0].Items[0].SetEnrichment(&domain.Enrichment{Name: "Carbone", Address: "181 Thompson St"})
		return true, nil
	})
	require.NoError(t, err)

	tm := "8pm"
	saved, err := f.svc.UpdateItem(context.Background(), jan(14), 0, ItemPatch{Time: &tm})
	require.NoError(t, err)
	require.NotNil(t, saved.Document.Days[0].Items[0].Enrichment)
	assert.Equal(t, "20:00", saved.Document.Days[0].Items[0].TimeStart.String())

	text := "Carbone, Greenwich Village"
	saved, err = f.svc.UpdateItem(context.Background(), jan(14), 0, ItemPatch{PromptText: &text})
	require.NoError(t, err)
	it := saved.Document.Days[0].Items[0]
	assert.Nil(t, it.Enrichment)
	assert.Equal(t, text, it.DisplayText)

	pending := f.svc.PendingEnrichment()
	var texts []string
	for _, p := range pending {
		texts = append(texts, p.PromptText)
	}
	assert.Contains(t, texts, text)
}

func TestUpdateItemMovesAcrossDays(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.svc.ReplaceOutline(context.Background(), twoDays)
	require.NoError(t, err)

	to := jan(15)
	pos := 0
	status := "primary"
	saved, err := f.svc.UpdateItem(context.Background(), jan(14), 1, ItemPatch{Date: &to, Position: &pos, Status: &status})
	require.NoError(t, err)
	require.Len(t, saved.Document.Days[0].Items, 1)
	day2 := saved.Document.Days[1].Items
	require.Len(t, day2, 2)
	assert.Equal(t, "Joe's Pizza", day2[0].PromptText)
	assert.Equal(t, domain.StatusPrimary, day2[0].Status)
	assert.Equal(t, 0, day2[0].SortOrder)
	assert.Equal(t, 1, day2[1].SortOrder)
}

func TestUpdateAndRemoveNotFound(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.svc.ReplaceOutline(context.Background(), twoDays)
	require.NoError(t, err)

	_, err = f.svc.RemoveItem(context.Background(), jan(20), 0)
	assert.True(t, errors.Is(err, pkgerrors.ErrNotFound))
	_, err = f.svc.RemoveItem(context.Background(), jan(14), 5)
	assert.True(t, errors.Is(err, pkgerrors.ErrNotFound))
	empty := " "
	_, err = f.svc.UpdateItem(context.Background(), jan(14), 0, ItemPatch{PromptText: &empty})
	assert.True(t, errors.Is(err, pkgerrors.ErrInvalidArgument))
}

func TestRemoveItem(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.svc.ReplaceOutline(context.Background(), twoDays)
	require.NoError(t, err)
	saved, err := f.svc.RemoveItem(context.Background(), jan(14), 0)
	require.NoError(t, err)
	require.Len(t, saved.Document.Days[0].Items, 1)
	assert.Equal(t, "Joe's Pizza", saved.Document.Days[0].Items[0].PromptText)
	assert.Equal(t, 0, saved.Document.Days[0].Items[0].SortOrder)
	assert.NotContains(t, saved.Outline, "Carbone")
}

func TestReplaceDocumentIgnoresIncomingEnrichment(t *testing.T) {
	f := newFixture(t, nil)
	doc := domain.NewDocument()
	doc.Days = []domain.Day{
		{Date: jan(15), Items: []domain.Item{{PromptText: "Museum of Modern Art", Time: "bogus", Enrichment: &domain.Enrichment{Name: "fake"}}}},
		{Date: jan(14), Items: []domain.Item{{PromptText: "Carbone", Time: "7pm"}}},
	}
	saved, err := f.svc.ReplaceDocument(context.Background(), doc)
	require.NoError(t, err)
	require.Len(t, saved.Document.Days, 2)
	assert.Equal(t, jan(14), saved.Document.Days[0].Date)
	moma := saved.Document.Days[1].Items[0]
	assert.Nil(t, moma.Enrichment)
	assert.Equal(t, "", moma.Time)
	assert.Equal(t, domain.CategoryCulture, moma.Category)
	assert.Equal(t, domain.StatusPrimary, moma.Status)

	doc.Days[0].Items[0].PromptText = ""
	_, err = f.svc.ReplaceDocument(context.Background(), doc)
	assert.True(t, errors.Is(err, pkgerrors.ErrInvalidArgument))
}

func TestMutationsRejectItemsTheOutlineCannotCarry(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.svc.ReplaceOutline(context.Background(), twoDays)
	require.NoError(t, err)
	ctx := context.Background()

	for _, in := range []ItemInput{
		{PromptText: "optional walk on the High Line"},
		{PromptText: "Dinner: Katz's"},
		{PromptText: "fallback: Joe's Pizza"},
		{PromptText: "Katz's\nthen dessert"},
	} {
		_, err := f.svc.AddItem(ctx, jan(14), in)
		assert.True(t, errors.Is(err, pkgerrors.ErrInvalidArgument), in.PromptText)
	}

	text := "Lunch: Whitney"
	_, err = f.svc.UpdateItem(ctx, jan(14), 0, ItemPatch{PromptText: &text})
	assert.True(t, errors.Is(err, pkgerrors.ErrInvalidArgument))
	assert.Equal(t, "Carbone", f.svc.Get().Document.Days[0].Items[0].PromptText)

	doc := domain.NewDocument()
	doc.Days = []domain.Day{{Date: jan(14), Items: []domain.Item{{PromptText: "lunch: Russ & Daughters"}}}}
	_, err = f.svc.ReplaceDocument(ctx, doc)
	assert.True(t, errors.Is(err, pkgerrors.ErrInvalidArgument))

	saved, err := f.svc.AddItem(ctx, jan(14), ItemInput{PromptText: "Katz's", Time: "Dinner"})
	require.NoError(t, err)
	before := saved.Document.Days[0].Items
	reparsed, err := outline.NewParser(2026).Parse(saved.Outline)
	require.NoError(t, err)
	after := reparsed.Days[0].Items
	require.Len(t, after, len(before))
	for i := range before {
		assert.Equal(t, before[i].PromptText, after[i].PromptText)
		assert.Equal(t, before[i].Time, after[i].Time)
		assert.Equal(t, before[i].Status, after[i].Status)
	}
}

func TestBootstrapSeedsFromMirror(t *testing.T) {
	f := newFixture(t, nil)
	f.mirror.text = twoDays
	require.NoError(t, f.svc.Bootstrap(context.Background()))
	assert.Equal(t, 1, f.store.saves)
	assert.Len(t, f.svc.Get().Document.Days, 2)
	assert.Equal(t, 1, f.queue.count())
}

func TestBootstrapRestoresStored(t *testing.T) {
	f := newFixture(t, nil)
	doc, err := outline.NewParser(2026).Parse(twoDays)
	require.NoError(t, err)
	f.store.saved = &Saved{Document: doc, Outline: twoDays, Version: 7}
	f.mirror.text = "# Jan 20\n- ignored\n"

	require.NoError(t, f.svc.Bootstrap(context.Background()))
	text, version := f.svc.Outline()
	assert.Equal(t, twoDays, text)
	assert.Equal(t, 7, version)
	assert.Zero(t, f.store.saves)
}

func TestEnrichNow(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.svc.ReplaceOutline(context.Background(), twoDays)
	require.NoError(t, err)
	n, err := f.svc.EnrichNow()
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, 2, f.queue.count())

	svc := NewService(logger.Nop(), f.cell, f.store, nil, outline.NewParser(2026), nil, nil)
	_, err = svc.EnrichNow()
	assert.True(t, errors.Is(err, pkgerrors.ErrUnavailable))
}

type staticCache enrichment.Index

func (c staticCache) Lookup(ctx context.Context, keys []string) (enrichment.Index, error) {
	out := enrichment.Index{}
	for _, k := range keys {
		if rec, ok := c[k]; ok {
			out[k] = rec
		}
	}
	return out, nil
}

func (c staticCache) Store(ctx context.Context, records enrichment.Index) error { return nil }
