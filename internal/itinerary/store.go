package itinerary

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"gorm.io/datatypes"

	repos "github.com/yungbote/itinerary-backend/internal/data/repos/itinerary"
	domain "github.com/yungbote/itinerary-backend/internal/domain/itinerary"
	"github.com/yungbote/itinerary-backend/internal/itinerary/enrichment"
	"github.com/yungbote/itinerary-backend/internal/pkg/dbctx"
	"github.com/yungbote/itinerary-backend/internal/platform/logger"
)

// DBStore keeps one trip's document and outline in the trip_document table. Writes carry
// the last version seen, so a second process writing the same trip gets a conflict instead
// of silently overwriting.
type DBStore struct {
	log     *logger.Logger
	repo    repos.TripDocumentRepo
	tripKey string

	mu      sync.Mutex
	version int
}

func NewDBStore(baseLog *logger.Logger, repo repos.TripDocumentRepo, tripKey string) *DBStore {
	return &DBStore{
		log:     baseLog.With("component", "DBStore", "trip_key", tripKey),
		repo:    repo,
		tripKey: tripKey,
	}
}

func (s *DBStore) Load(ctx context.Context) (*Saved, error) {
	row, err := s.repo.GetByTripKey(dbctx.Context{Ctx: ctx}, s.tripKey)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, nil
	}
	doc := domain.NewDocument()
	if len(row.Document) > 0 {
		if err := json.Unmarshal(row.Document, doc); err != nil {
			return nil, fmt.Errorf("decode stored document: %w", err)
		}
	}
	doc.Normalize()

	s.mu.Lock()
	s.version = row.Version
	s.mu.Unlock()

	return &Saved{Document: doc, Outline: row.Outline, Version: row.Version}, nil
}

func (s *DBStore) Save(ctx context.Context, doc *domain.Document, outlineText string) (int, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return 0, fmt.Errorf("encode document: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	row, err := s.repo.Save(dbctx.Context{Ctx: ctx}, &domain.TripDocument{
		TripKey:  s.tripKey,
		Document: datatypes.JSON(raw),
		Outline:  outlineText,
	}, s.version)
	if err != nil {
		return 0, err
	}
	s.version = row.Version
	return row.Version, nil
}

// DBCache is the enrichment cache over the enrichment_cache table.
type DBCache struct {
	log  *logger.Logger
	repo repos.EnrichmentCacheRepo
}

func NewDBCache(baseLog *logger.Logger, repo repos.EnrichmentCacheRepo) *DBCache {
	return &DBCache{log: baseLog.With("component", "DBCache"), repo: repo}
}

func (c *DBCache) Lookup(ctx context.Context, promptTexts []string) (enrichment.Index, error) {
	out := enrichment.Index{}
	if len(promptTexts) == 0 {
		return out, nil
	}
	rows, err := c.repo.GetByKeys(dbctx.Context{Ctx: ctx}, promptTexts)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		var rec domain.Enrichment
		if err := json.Unmarshal(row.Record, &rec); err != nil {
			c.log.Warn("Skipping undecodable cache entry", "prompt_key", row.PromptKey, "error", err)
			continue
		}
		out[row.PromptKey] = &rec
	}
	return out, nil
}

func (c *DBCache) Store(ctx context.Context, records enrichment.Index) error {
	if len(records) == 0 {
		return nil
	}
	now := time.Now().UTC()
	entries := make([]*domain.EnrichmentCacheEntry, 0, len(records))
	for key, rec := range records {
		if rec == nil {
			continue
		}
		raw, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("encode cache entry %q: %w", key, err)
		}
		entries = append(entries, &domain.EnrichmentCacheEntry{PromptKey: key, Record: datatypes.JSON(raw), UpdatedAt: now})
	}
	return c.repo.Upsert(dbctx.Context{Ctx: ctx}, entries)
}
