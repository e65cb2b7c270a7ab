package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/itinerary-backend/internal/itinerary/enrichment"
	"github.com/yungbote/itinerary-backend/internal/platform/envutil"
	"github.com/yungbote/itinerary-backend/internal/platform/logger"
)

// tripFile is the optional YAML file named by TRIP_CONFIG_PATH.
type tripFile struct {
	Name    string `yaml:"name"`
	Year    int    `yaml:"year"`
	TripKey string `yaml:"trip_key"`
	Hotel   struct {
		Name string   `yaml:"name"`
		Lat  *float64 `yaml:"lat"`
		Lng  *float64 `yaml:"lng"`
	} `yaml:"hotel"`
	PreferencesFile string `yaml:"preferences_file"`
	Enrichment      struct {
		MaxBatchSize int           `yaml:"max_batch_size"`
		MaxAttempts  int           `yaml:"max_attempts"`
		BaseBackoff  time.Duration `yaml:"base_backoff"`
		Concurrency  int           `yaml:"concurrency"`
	} `yaml:"enrichment"`
}

type Config struct {
	Port        string
	Environment string
	CORSOrigins []string

	TripName string
	TripKey  string
	Year     int

	HotelName   string
	HotelLat    float64
	HotelLng    float64
	HasLocation bool
	Preferences string

	Enrichment    enrichment.Config
	RatePerMinute float64
	Grounding     string

	OutlineBucket string
	OutlineObject string
	OutlineFile   string

	RealtimeBus string
}

// LoadConfig reads the trip file when TRIP_CONFIG_PATH is set, then lets the environment
// override any of its values.
func LoadConfig(log *logger.Logger) (Config, error) {
	var tf tripFile
	path := envutil.String("TRIP_CONFIG_PATH", "", log)
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read trip config: %w", err)
		}
		if err := yaml.Unmarshal(raw, &tf); err != nil {
			return Config{}, fmt.Errorf("parse trip config %s: %w", path, err)
		}
	}

	def := enrichment.DefaultConfig()
	if tf.Enrichment.MaxBatchSize > 0 {
		def.MaxBatchSize = tf.Enrichment.MaxBatchSize
	}
	if tf.Enrichment.MaxAttempts > 0 {
		def.MaxAttempts = tf.Enrichment.MaxAttempts
	}
	if tf.Enrichment.BaseBackoff > 0 {
		def.BaseBackoff = tf.Enrichment.BaseBackoff
	}
	if tf.Enrichment.Concurrency > 0 {
		def.Concurrency = tf.Enrichment.Concurrency
	}

	year := tf.Year
	if year <= 0 {
		year = time.Now().Year()
	}
	tripKey := tf.TripKey
	if tripKey == "" {
		tripKey = "default"
	}

	cfg := Config{
		Port:        envutil.String("PORT", "8080", log),
		Environment: envutil.String("ENVIRONMENT", "development", log),
		CORSOrigins: splitList(envutil.String("CORS_ALLOWED_ORIGINS", "", log)),

		TripName: envutil.String("TRIP_NAME", tf.Name, log),
		TripKey:  envutil.String("TRIP_KEY", tripKey, log),
		Year:     envutil.Int("TRIP_YEAR", year, log),

		HotelName: envutil.String("HOTEL_NAME", tf.Hotel.Name, log),

		Enrichment: enrichment.Config{
			MaxBatchSize: envutil.Int("ENRICH_MAX_BATCH_SIZE", def.MaxBatchSize, log),
			MaxAttempts:  envutil.Int("ENRICH_MAX_ATTEMPTS", def.MaxAttempts, log),
			BaseBackoff:  envutil.Duration("ENRICH_BASE_BACKOFF", def.BaseBackoff, log),
			Concurrency:  envutil.Int("ENRICH_CONCURRENCY", def.Concurrency, log),
		},
		RatePerMinute: envutil.Float("ENRICH_RATE_PER_MINUTE", 30, log),
		Grounding:     strings.ToLower(envutil.String("GEMINI_GROUNDING", "maps", log)),

		OutlineBucket: envutil.String("OUTLINE_GCS_BUCKET", "", log),
		OutlineObject: envutil.String("OUTLINE_GCS_OBJECT", "itinerary.txt", log),
		OutlineFile:   envutil.String("OUTLINE_FILE", "itinerary.txt", log),

		RealtimeBus: envutil.String("REALTIME_BUS", "memory", log),
	}

	if tf.Hotel.Lat != nil && tf.Hotel.Lng != nil {
		cfg.HotelLat, cfg.HotelLng, cfg.HasLocation = *tf.Hotel.Lat, *tf.Hotel.Lng, true
	}
	if lat, lng, ok := envLocation(log); ok {
		cfg.HotelLat, cfg.HotelLng, cfg.HasLocation = lat, lng, true
	}

	prefPath := envutil.String("TRIP_PREFERENCES_FILE", tf.PreferencesFile, log)
	if prefPath != "" {
		if !filepath.IsAbs(prefPath) && path != "" && os.Getenv("TRIP_PREFERENCES_FILE") == "" {
			prefPath = filepath.Join(filepath.Dir(path), prefPath)
		}
		raw, err := os.ReadFile(prefPath)
		if err != nil {
			return Config{}, fmt.Errorf("read preferences: %w", err)
		}
		cfg.Preferences = strings.TrimSpace(string(raw))
	}

	if cfg.Year < 1 || cfg.Year > 9999 {
		return Config{}, fmt.Errorf("TRIP_YEAR %d out of range", cfg.Year)
	}
	switch cfg.Grounding {
	case "maps", "search":
	default:
		return Config{}, fmt.Errorf("GEMINI_GROUNDING must be maps or search, got %q", cfg.Grounding)
	}
	return cfg, nil
}

// TripLabel is the short trip description used in the enrichment prompt.
func (c Config) TripLabel() string {
	if strings.TrimSpace(c.TripName) != "" {
		return c.TripName
	}
	return "trip " + c.TripKey
}

func envLocation(log *logger.Logger) (float64, float64, bool) {
	rawLat := envutil.String("HOTEL_LAT", "", log)
	rawLng := envutil.String("HOTEL_LNG", "", log)
	if rawLat == "" || rawLng == "" {
		return 0, 0, false
	}
	lat, err1 := strconv.ParseFloat(rawLat, 64)
	lng, err2 := strconv.ParseFloat(rawLng, 64)
	if err1 != nil || err2 != nil {
		log.Warn("Ignoring unparseable hotel location", "lat", rawLat, "lng", rawLng)
		return 0, 0, false
	}
	return lat, lng, true
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
