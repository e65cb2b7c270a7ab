package itinerary

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/itinerary-backend/internal/domain/itinerary"
	"github.com/yungbote/itinerary-backend/internal/pkg/dbctx"
	pkgerrors "github.com/yungbote/itinerary-backend/internal/pkg/errors"
	"github.com/yungbote/itinerary-backend/internal/platform/logger"
)

type TripDocumentRepo interface {
	// GetByTripKey returns nil, nil when the trip has no row yet.
	GetByTripKey(dbc dbctx.Context, tripKey string) (*types.TripDocument, error)
	// Save writes document and outline for row.TripKey. expectedVersion must match the stored
	// version (0 for a new trip); the stored row with its bumped version is returned.
	Save(dbc dbctx.Context, row *types.TripDocument, expectedVersion int) (*types.TripDocument, error)
}

type tripDocumentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTripDocumentRepo(db *gorm.DB, baseLog *logger.Logger) TripDocumentRepo {
	repoLog := baseLog.With("repo", "TripDocumentRepo")
	return &tripDocumentRepo{db: db, log: repoLog}
}

func (r *tripDocumentRepo) GetByTripKey(dbc dbctx.Context, tripKey string) (*types.TripDocument, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.TripDocument
	if err := transaction.WithContext(dbc.Ctx).
		Where("trip_key = ?", tripKey).
		Limit(1).
		Find(&results).Error; err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0], nil
}

func (r *tripDocumentRepo) Save(dbc dbctx.Context, row *types.TripDocument, expectedVersion int) (*types.TripDocument, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if row == nil || row.TripKey == "" {
		return nil, fmt.Errorf("%w: trip key is required", pkgerrors.ErrInvalidArgument)
	}

	var saved *types.TripDocument
	err := transaction.WithContext(dbc.Ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := r.GetByTripKey(dbctx.Context{Ctx: dbc.Ctx, Tx: tx}, row.TripKey)
		if err != nil {
			return err
		}
		now := time.Now().UTC()

		if existing == nil {
			if expectedVersion != 0 {
				return fmt.Errorf("%w: trip %q has no stored version %d", pkgerrors.ErrConflict, row.TripKey, expectedVersion)
			}
			created := &types.TripDocument{
				ID:        uuid.New(),
				TripKey:   row.TripKey,
				Document:  row.Document,
				Outline:   row.Outline,
				Version:   1,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := tx.Create(created).Error; err != nil {
				return err
			}
			saved = created
			return nil
		}

		if existing.Version != expectedVersion {
			return fmt.Errorf("%w: trip %q is at version %d, expected %d", pkgerrors.ErrConflict, row.TripKey, existing.Version, expectedVersion)
		}
		res := tx.Model(&types.TripDocument{}).
			Where("id = ? AND version = ?", existing.ID, existing.Version).
			Updates(map[string]interface{}{
				"document":   row.Document,
				"outline":    row.Outline,
				"version":    existing.Version + 1,
				"updated_at": now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: trip %q changed concurrently", pkgerrors.ErrConflict, row.TripKey)
		}
		existing.Document = row.Document
		existing.Outline = row.Outline
		existing.Version++
		existing.UpdatedAt = now
		saved = existing
		return nil
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}
