package itinerary

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// TripDocument is the persisted form of one trip: the structured document plus the outline
// text it was last rendered to (or authored as).
type TripDocument struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	TripKey   string         `gorm:"column:trip_key;uniqueIndex;not null" json:"trip_key"`
	Document  datatypes.JSON `gorm:"column:document;type:jsonb;not null" json:"document"`
	Outline   string         `gorm:"column:outline;type:text;not null" json:"outline"`
	Version   int            `gorm:"column:version;not null;default:0" json:"version"`
	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
}

func (TripDocument) TableName() string { return "trip_document" }

// EnrichmentCacheEntry maps a prompt text to the last enrichment record fetched for it.
type EnrichmentCacheEntry struct {
	PromptKey string         `gorm:"column:prompt_key;primaryKey" json:"prompt_key"`
	Record    datatypes.JSON `gorm:"column:record;type:jsonb;not null" json:"record"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
}

func (EnrichmentCacheEntry) TableName() string { return "enrichment_cache" }
