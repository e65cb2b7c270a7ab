package itinerary

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/itinerary-backend/internal/domain/itinerary"
	"github.com/yungbote/itinerary-backend/internal/pkg/dbctx"
	"github.com/yungbote/itinerary-backend/internal/platform/logger"
)

// keyBatch keeps IN lists under SQLite's bound-parameter limit.
const keyBatch = 500

type EnrichmentCacheRepo interface {
	GetByKeys(dbc dbctx.Context, promptKeys []string) ([]*types.EnrichmentCacheEntry, error)
	Upsert(dbc dbctx.Context, entries []*types.EnrichmentCacheEntry) error
}

type enrichmentCacheRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEnrichmentCacheRepo(db *gorm.DB, baseLog *logger.Logger) EnrichmentCacheRepo {
	repoLog := baseLog.With("repo", "EnrichmentCacheRepo")
	return &enrichmentCacheRepo{db: db, log: repoLog}
}

func (r *enrichmentCacheRepo) GetByKeys(dbc dbctx.Context, promptKeys []string) ([]*types.EnrichmentCacheEntry, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	results := []*types.EnrichmentCacheEntry{}
	for start := 0; start < len(promptKeys); start += keyBatch {
		end := start + keyBatch
		if end > len(promptKeys) {
			end = len(promptKeys)
		}
		var batch []*types.EnrichmentCacheEntry
		if err := transaction.WithContext(dbc.Ctx).
			Where("prompt_key IN ?", promptKeys[start:end]).
			Find(&batch).Error; err != nil {
			return nil, err
		}
		results = append(results, batch...)
	}
	return results, nil
}

func (r *enrichmentCacheRepo) Upsert(dbc dbctx.Context, entries []*types.EnrichmentCacheEntry) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(entries) == 0 {
		return nil
	}

	return transaction.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "prompt_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"record", "updated_at"}),
		}).
		CreateInBatches(entries, 100).Error
}
