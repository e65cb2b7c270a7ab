package app

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/yungbote/itinerary-backend/internal/data/db"
	repos "github.com/yungbote/itinerary-backend/internal/data/repos/itinerary"
	"github.com/yungbote/itinerary-backend/internal/itinerary"
	"github.com/yungbote/itinerary-backend/internal/itinerary/enrichment"
	"github.com/yungbote/itinerary-backend/internal/itinerary/outline"
	"github.com/yungbote/itinerary-backend/internal/platform/gcp"
	"github.com/yungbote/itinerary-backend/internal/platform/gemini"
	"github.com/yungbote/itinerary-backend/internal/platform/logger"
)

// Core is the persisted itinerary without any transport: database, cache, outline mirror
// and the single-writer cell. The server and the command line tools share it.
type Core struct {
	DB     *db.Service
	Store  *itinerary.DBStore
	Cache  *itinerary.DBCache
	Mirror itinerary.OutlineMirror
	Cell   *itinerary.Cell
	Parser *outline.Parser

	objects gcp.ObjectStore
}

// OpenCore connects storage and restores nothing yet; call Service().Bootstrap. notify may be nil.
func OpenCore(log *logger.Logger, cfg Config, notify itinerary.UpdateNotifier) (*Core, error) {
	dbs, err := db.Open(log)
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}
	if err := db.AutoMigrateAll(dbs.DB()); err != nil {
		_ = dbs.Close()
		return nil, fmt.Errorf("database automigrate: %w", err)
	}

	docRepo := repos.NewTripDocumentRepo(dbs.DB(), log)
	cacheRepo := repos.NewEnrichmentCacheRepo(dbs.DB(), log)
	store := itinerary.NewDBStore(log, docRepo, cfg.TripKey)

	c := &Core{
		DB:     dbs,
		Store:  store,
		Cache:  itinerary.NewDBCache(log, cacheRepo),
		Parser: outline.NewParser(cfg.Year),
	}
	if err := c.openMirror(log, cfg); err != nil {
		_ = dbs.Close()
		return nil, err
	}
	c.Cell = itinerary.NewCell(log, store, c.Mirror, notify, outline.NewSerializer(cfg.Year))
	return c, nil
}

func (c *Core) openMirror(log *logger.Logger, cfg Config) error {
	if cfg.OutlineBucket == "" {
		log.Info("Outline mirror is a local file", "path", cfg.OutlineFile)
		c.Mirror = itinerary.NewFileMirror(cfg.OutlineFile)
		return nil
	}
	objects, err := gcp.NewObjectStore(log, cfg.OutlineBucket)
	if err != nil {
		return fmt.Errorf("init outline bucket: %w", err)
	}
	log.Info("Outline mirror is a bucket object", "bucket", cfg.OutlineBucket, "object", cfg.OutlineObject)
	c.objects = objects
	c.Mirror = itinerary.NewBucketMirror(objects, cfg.OutlineObject)
	return nil
}

// Service wires the itinerary operations over the core. queue may be nil.
func (c *Core) Service(log *logger.Logger, queue itinerary.Enqueuer) *itinerary.Service {
	return itinerary.NewService(log, c.Cell, c.Store, c.Mirror, c.Parser, c.Cache, queue)
}

// Load restores the stored document into the cell without seeding or enriching.
func (c *Core) Load(ctx context.Context) (bool, error) {
	saved, err := c.Store.Load(ctx)
	if err != nil {
		return false, err
	}
	if saved == nil {
		return false, nil
	}
	c.Cell.Restore(saved)
	return true, nil
}

func (c *Core) Close() {
	if c == nil {
		return
	}
	if c.objects != nil {
		_ = c.objects.Close()
	}
	if c.DB != nil {
		_ = c.DB.Close()
	}
}

// NewScheduler builds the Gemini-backed enrichment scheduler. It fails when no API key is
// configured. notify may be nil.
func NewScheduler(log *logger.Logger, cfg Config, core *Core, notify enrichment.Notifier) (*enrichment.Scheduler, error) {
	client, err := gemini.NewClient(log, gemini.ConfigFromEnv(log))
	if err != nil {
		return nil, err
	}
	opts := enrichment.GeminiOptions{
		Trip:        cfg.TripLabel(),
		Preferences: cfg.Preferences,
		HotelName:   cfg.HotelName,
		Grounding:   cfg.Grounding,
	}
	if cfg.HasLocation {
		opts.Location = &gemini.LatLng{Latitude: cfg.HotelLat, Longitude: cfg.HotelLng}
	}
	if cfg.RatePerMinute > 0 {
		opts.Limiter = rate.NewLimiter(rate.Limit(cfg.RatePerMinute/60), 1)
	}
	capability := enrichment.NewGeminiCapability(log, client, opts)
	return enrichment.NewScheduler(log, capability, core.Cell, core.Cache, notify, cfg.Enrichment), nil
}
