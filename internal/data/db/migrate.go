package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/itinerary-backend/internal/domain/itinerary"
)

func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&itinerary.TripDocument{},
		&itinerary.EnrichmentCacheEntry{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
