package itinerary

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/civil"

	domain "github.com/yungbote/itinerary-backend/internal/domain/itinerary"
	"github.com/yungbote/itinerary-backend/internal/itinerary/enrichment"
	"github.com/yungbote/itinerary-backend/internal/itinerary/outline"
	pkgerrors "github.com/yungbote/itinerary-backend/internal/pkg/errors"
	"github.com/yungbote/itinerary-backend/internal/platform/logger"
)

// Enqueuer starts background enrichment for a document.
type Enqueuer interface {
	Schedule(doc *domain.Document)
}

// ItemInput describes a new item, either as an outline line or as fields.
type ItemInput struct {
	Line       string `json:"line"`
	PromptText string `json:"promptText"`
	Time       string `json:"time"`
	Status     string `json:"status"`
	Position   *int   `json:"position"`
}

// ItemPatch changes the fields that are set. Date moves the item to another day.
type ItemPatch struct {
	PromptText *string     `json:"promptText"`
	Time       *string     `json:"time"`
	Status     *string     `json:"status"`
	Position   *int        `json:"position"`
	Date       *civil.Date `json:"date"`
}

type Service struct {
	log    *logger.Logger
	cell   *Cell
	store  Store
	mirror OutlineMirror
	parser *outline.Parser
	cache  enrichment.Cache
	queue  Enqueuer
}

// NewService wires the itinerary operations. mirror, cache and queue may be nil.
func NewService(baseLog *logger.Logger, cell *Cell, store Store, mirror OutlineMirror, parser *outline.Parser, cache enrichment.Cache, queue Enqueuer) *Service {
	return &Service{
		log:    baseLog.With("service", "ItineraryService"),
		cell:   cell,
		store:  store,
		mirror: mirror,
		parser: parser,
		cache:  cache,
		queue:  queue,
	}
}

// Bootstrap loads the stored document, or seeds the store from the outline mirror when
// nothing is stored yet, then queues enrichment for whatever is missing.
func (s *Service) Bootstrap(ctx context.Context) error {
	saved, err := s.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load itinerary: %w", err)
	}
	if saved != nil {
		s.cell.Restore(saved)
		s.log.Info("Itinerary loaded", "version", saved.Version)
		s.schedule(s.cell.Snapshot())
		return nil
	}
	if s.mirror == nil {
		return nil
	}
	text, err := s.mirror.Read(ctx)
	if err != nil {
		s.log.Warn("Outline mirror read failed, starting empty", "error", err)
		return nil
	}
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if _, err := s.ReplaceOutline(ctx, text); err != nil {
		return fmt.Errorf("seed itinerary from outline: %w", err)
	}
	s.log.Info("Itinerary seeded from outline mirror")
	return nil
}

func (s *Service) Get() Saved {
	return s.cell.Current()
}

func (s *Service) Outline() (string, int) {
	cur := s.cell.Current()
	return cur.Outline, cur.Version
}

// ReplaceOutline parses text, carries known enrichment over and persists both. On a parse
// error nothing changes.
func (s *Service) ReplaceOutline(ctx context.Context, text string) (Saved, error) {
	fresh, err := s.parser.Parse(text)
	if err != nil {
		return Saved{}, err
	}
	return s.commit(ctx, func(cur *domain.Document) (*domain.Document, string, error) {
		next := enrichment.Merge(fresh, cur)
		s.fillFromCache(ctx, next)
		return next, text, nil
	})
}

// ReplaceDocument takes a whole document. Enrichment in the input is ignored; records are
// only ever carried over by prompt text.
func (s *Service) ReplaceDocument(ctx context.Context, doc *domain.Document) (Saved, error) {
	if doc == nil {
		return Saved{}, fmt.Errorf("%w: document is required", pkgerrors.ErrInvalidArgument)
	}
	fresh, err := sanitizeDocument(doc)
	if err != nil {
		return Saved{}, err
	}
	return s.commit(ctx, func(cur *domain.Document) (*domain.Document, string, error) {
		next := enrichment.Merge(fresh, cur)
		s.fillFromCache(ctx, next)
		return next, "", nil
	})
}

// AddItem inserts an item into the day for date, creating the day when needed.
func (s *Service) AddItem(ctx context.Context, date civil.Date, in ItemInput) (Saved, error) {
	it, err := itemFromInput(in)
	if err != nil {
		return Saved{}, err
	}
	return s.commit(ctx, func(cur *domain.Document) (*domain.Document, string, error) {
		d := cur.EnsureDay(date)
		day := &cur.Days[d]
		day.Items = insertItem(day.Items, it, in.Position)
		s.fillFromCache(ctx, cur)
		return cur, "", nil
	})
}

// UpdateItem patches the item at index on date. A changed prompt text drops enrichment.
func (s *Service) UpdateItem(ctx context.Context, date civil.Date, index int, patch ItemPatch) (Saved, error) {
	var status domain.Status
	if patch.Status != nil {
		st, err := domain.ParseStatus(*patch.Status)
		if err != nil {
			return Saved{}, fmt.Errorf("%w: %v", pkgerrors.ErrInvalidArgument, err)
		}
		status = st
	}
	if patch.PromptText != nil && strings.TrimSpace(*patch.PromptText) == "" {
		return Saved{}, fmt.Errorf("%w: promptText must not be empty", pkgerrors.ErrInvalidArgument)
	}
	return s.commit(ctx, func(cur *domain.Document) (*domain.Document, string, error) {
		d, i, err := locate(cur, date, index)
		if err != nil {
			return nil, "", err
		}
		it := cur.Days[d].Items[i]
		if patch.PromptText != nil {
			it.SetPromptText(strings.TrimSpace(*patch.PromptText))
		}
		if patch.Time != nil {
			it.Time = *patch.Time
		}
		if patch.Status != nil {
			it.Status = status
		}
		outline.Derive(&it)
		if err := outline.CheckItemLine(it); err != nil {
			return nil, "", err
		}

		target := date
		if patch.Date != nil {
			target = *patch.Date
		}
		if target == date && patch.Position == nil {
			cur.Days[d].Items[i] = it
		} else {
			cur.Days[d].Items = append(cur.Days[d].Items[:i], cur.Days[d].Items[i+1:]...)
			td := cur.EnsureDay(target)
			cur.Days[td].Items = insertItem(cur.Days[td].Items, it, patch.Position)
		}
		s.fillFromCache(ctx, cur)
		return cur, "", nil
	})
}

// RemoveItem deletes the item at index on date.
func (s *Service) RemoveItem(ctx context.Context, date civil.Date, index int) (Saved, error) {
	return s.commit(ctx, func(cur *domain.Document) (*domain.Document, string, error) {
		d, i, err := locate(cur, date, index)
		if err != nil {
			return nil, "", err
		}
		cur.Days[d].Items = append(cur.Days[d].Items[:i], cur.Days[d].Items[i+1:]...)
		return cur, "", nil
	})
}

// PendingEnrichment lists the entries still waiting for enrichment.
func (s *Service) PendingEnrichment() []enrichment.Pending {
	return enrichment.CollectPending(s.cell.Snapshot())
}

// EnrichNow queues a pass and reports how many entries it will look at.
func (s *Service) EnrichNow() (int, error) {
	if s.queue == nil {
		return 0, fmt.Errorf("%w: enrichment is not configured", pkgerrors.ErrUnavailable)
	}
	doc := s.cell.Snapshot()
	n := len(enrichment.CollectPending(doc))
	if n > 0 {
		s.queue.Schedule(doc)
	}
	return n, nil
}

func (s *Service) commit(ctx context.Context, fn CommitFunc) (Saved, error) {
	saved, err := s.cell.Commit(ctx, fn)
	if err != nil {
		return Saved{}, err
	}
	s.schedule(saved.Document)
	return saved, nil
}

func (s *Service) schedule(doc *domain.Document) {
	if s.queue == nil || doc == nil {
		return
	}
	if len(enrichment.CollectPending(doc)) == 0 {
		return
	}
	s.queue.Schedule(doc)
}

// fillFromCache resolves nil slots from the persisted cache. A cache failure only means
// more work for the scheduler.
func (s *Service) fillFromCache(ctx context.Context, doc *domain.Document) {
	if s.cache == nil {
		return
	}
	pending := enrichment.CollectPending(doc)
	if len(pending) == 0 {
		return
	}
	keys := make([]string, 0, len(pending))
	for _, p := range pending {
		keys = append(keys, p.PromptText)
	}
	ix, err := s.cache.Lookup(ctx, keys)
	if err != nil {
		s.log.Warn("Enrichment cache lookup failed", "error", err)
		return
	}
	if n := enrichment.Fill(doc, ix); n > 0 {
		s.log.Debug("Filled enrichment from cache", "count", n)
	}
}

func locate(doc *domain.Document, date civil.Date, index int) (int, int, error) {
	d, ok := doc.DayIndex(date)
	if !ok {
		return 0, 0, fmt.Errorf("%w: no day %s", pkgerrors.ErrNotFound, date)
	}
	if index < 0 || index >= len(doc.Days[d].Items) {
		return 0, 0, fmt.Errorf("%w: no item %d on %s", pkgerrors.ErrNotFound, index, date)
	}
	return d, index, nil
}

func insertItem(items []domain.Item, it domain.Item, position *int) []domain.Item {
	pos := len(items)
	if position != nil {
		pos = *position
		if pos < 0 {
			pos = 0
		}
		if pos > len(items) {
			pos = len(items)
		}
	}
	items = append(items, domain.Item{})
	copy(items[pos+1:], items[pos:])
	items[pos] = it
	return items
}

func itemFromInput(in ItemInput) (domain.Item, error) {
	if line := strings.TrimSpace(in.Line); line != "" {
		it, ok := outline.ParseItemLine(strings.TrimSpace(strings.TrimPrefix(line, "- ")))
		if !ok {
			return domain.Item{}, fmt.Errorf("%w: line has no description", pkgerrors.ErrInvalidArgument)
		}
		return it, outline.CheckItemLine(it)
	}
	text := strings.TrimSpace(in.PromptText)
	if text == "" {
		return domain.Item{}, fmt.Errorf("%w: promptText or line is required", pkgerrors.ErrInvalidArgument)
	}
	status, err := domain.ParseStatus(in.Status)
	if err != nil {
		return domain.Item{}, fmt.Errorf("%w: %v", pkgerrors.ErrInvalidArgument, err)
	}
	it := domain.Item{PromptText: text, Time: in.Time, Status: status}
	outline.Derive(&it)
	if err := outline.CheckItemLine(it); err != nil {
		return domain.Item{}, err
	}
	return it, nil
}

// sanitizeDocument copies doc with enrichment cleared and derived fields recomputed.
func sanitizeDocument(doc *domain.Document) (*domain.Document, error) {
	out := domain.NewDocument()
	if doc.Hotel != nil && strings.TrimSpace(doc.Hotel.PromptText) != "" {
		h := domain.NewStub(strings.TrimSpace(doc.Hotel.PromptText))
		out.Hotel = &h
	}
	for _, r := range doc.Reservations {
		if text := strings.TrimSpace(r.PromptText); text != "" {
			out.Reservations = append(out.Reservations, domain.NewStub(text))
		}
	}
	for _, n := range doc.Notes {
		if n = strings.TrimSpace(n); n != "" {
			out.Notes = append(out.Notes, n)
		}
	}
	for _, d := range doc.Days {
		if !d.Date.IsValid() {
			return nil, fmt.Errorf("%w: invalid day date %q", pkgerrors.ErrInvalidArgument, d.Date.String())
		}
		day := domain.NewDay(d.Date, strings.TrimSpace(d.Title))
		for _, it := range d.Items {
			text := strings.TrimSpace(it.PromptText)
			if text == "" {
				return nil, fmt.Errorf("%w: item on %s has no promptText", pkgerrors.ErrInvalidArgument, d.Date)
			}
			status := it.Status
			if status == "" {
				status = domain.StatusPrimary
			}
			if !status.Valid() {
				return nil, fmt.Errorf("%w: unknown status %q", pkgerrors.ErrInvalidArgument, it.Status)
			}
			next := domain.Item{PromptText: text, Time: it.Time, Status: status}
			outline.Derive(&next)
			if err := outline.CheckItemLine(next); err != nil {
				return nil, err
			}
			day.Items = append(day.Items, next)
		}
		out.Days = append(out.Days, day)
	}
	out.Normalize()
	return out, nil
}
