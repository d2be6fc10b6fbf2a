package api

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the server configuration, loaded from environment variables.
type Config struct {
	ListenAddr       string
	DBPath           string
	RegistrationFile string // YAML sidebar and widget registration; empty = none
	ShutdownTimeout  time.Duration
	LogFormat        string // "json" (default) or "text"
	LogLevel         string // "debug", "info" (default), "warn", "error"

	RateLimit    int   // requests per API key per minute (default: 300)
	MaxBodyBytes int64 // request body limit (default: 10 MiB)

	CORSAllowedOrigins []string // allowed origins for CORS; empty = disabled

	KeyPurgeInterval time.Duration // how often expired API keys are deleted (default: 1h)
}

// LoadConfig reads configuration from environment variables with sensible defaults.
func LoadConfig() Config {
	cfg := Config{
		ListenAddr:       ":8080",
		DBPath:           "./data/widgetareas.db",
		ShutdownTimeout:  30 * time.Second,
		LogFormat:        "json",
		LogLevel:         "info",
		RateLimit:        300,
		MaxBodyBytes:     10 << 20,
		KeyPurgeInterval: time.Hour,
	}

	if v := os.Getenv("WA_LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv("WA_DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("WA_REGISTRATION_FILE"); v != "" {
		cfg.RegistrationFile = v
	}
	if v := os.Getenv("WA_SHUTDOWN_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.ShutdownTimeout = d
		}
	}
	if v := os.Getenv("WA_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}
	if v := os.Getenv("WA_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("WA_RATE_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.RateLimit = n
		}
	}
	if v := os.Getenv("WA_MAX_BODY_BYTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			cfg.MaxBodyBytes = n
		}
	}
	if v := os.Getenv("WA_KEY_PURGE_INTERVAL"); v != "" {
		if d := parseDaysDuration(v); d > 0 {
			cfg.KeyPurgeInterval = d
		}
	}

	if v := os.Getenv("WA_CORS_ALLOWED_ORIGINS"); v != "" {
		origins := strings.Split(v, ",")
		for _, o := range origins {
			o = strings.TrimSpace(o)
			if o != "" {
				cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, o)
			}
		}
	}

	return cfg
}

// parseDaysDuration parses a string like "1d", "7d" into a time.Duration.
// Falls back to time.ParseDuration for standard Go durations.
func parseDaysDuration(s string) time.Duration {
	s = strings.TrimSpace(s)
	if strings.HasSuffix(s, "d") {
		numStr := strings.TrimSuffix(s, "d")
		if n, err := strconv.Atoi(numStr); err == nil && n > 0 {
			return time.Duration(n) * 24 * time.Hour
		}
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	return 0
}
