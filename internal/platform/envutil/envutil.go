package envutil

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/yungbote/itinerary-backend/internal/platform/logger"
)

// String returns the trimmed value of name, or def when it is unset or blank.
func String(name, def string, log *logger.Logger) string {
	if log != nil {
		log = log.With("env_var", name)
	}
	v, ok := os.LookupEnv(name)
	v = strings.TrimSpace(v)
	if !ok || v == "" {
		if log != nil {
			log.Debug("Environment variable not found, using default", "default", def)
		}
		return def
	}
	if log != nil {
		log.Debug("Environment variable found, using environment", "value", v)
	}
	return v
}

func Int(name string, def int, log *logger.Logger) int {
	raw := String(name, "", nil)
	if raw == "" {
		return def
	}
	i, err := strconv.Atoi(raw)
	if err != nil {
		if log != nil {
			log.Debug("Environment variable could not be parsed as int, using default", "env_var", name, "providedVal", raw, "defaultVal", def, "error", err)
		}
		return def
	}
	return i
}

func Float(name string, def float64, log *logger.Logger) float64 {
	raw := String(name, "", nil)
	if raw == "" {
		return def
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		if log != nil {
			log.Debug("Environment variable could not be parsed as float, using default", "env_var", name, "providedVal", raw, "defaultVal", def, "error", err)
		}
		return def
	}
	return f
}

func Bool(name string, def bool) bool {
	switch strings.ToLower(String(name, "", nil)) {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

// Duration accepts Go duration strings ("1500ms") or a bare number of seconds.
func Duration(name string, def time.Duration, log *logger.Logger) time.Duration {
	raw := String(name, "", nil)
	if raw == "" {
		return def
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	if secs, err := strconv.ParseFloat(raw, 64); err == nil {
		return time.Duration(secs * float64(time.Second))
	}
	if log != nil {
		log.Debug("Environment variable could not be parsed as duration, using default", "env_var", name, "providedVal", raw, "defaultVal", def.String())
	}
	return def
}
