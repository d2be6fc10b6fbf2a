package api

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg := LoadConfig()
	if cfg.ListenAddr != ":8080" || cfg.RateLimit != 300 || cfg.MaxBodyBytes != 10<<20 {
		t.Fatalf("defaults = %+v", cfg)
	}
	if cfg.RegistrationFile != "" || len(cfg.CORSAllowedOrigins) != 0 {
		t.Fatalf("unexpected optional settings: %+v", cfg)
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("WA_LISTEN_ADDR", "127.0.0.1:9000")
	t.Setenv("WA_DB_PATH", "/tmp/areas.db")
	t.Setenv("WA_REGISTRATION_FILE", "sidebars.yaml")
	t.Setenv("WA_SHUTDOWN_TIMEOUT", "5s")
	t.Setenv("WA_LOG_FORMAT", "text")
	t.Setenv("WA_RATE_LIMIT", "12")
	t.Setenv("WA_MAX_BODY_BYTES", "2048")
	t.Setenv("WA_KEY_PURGE_INTERVAL", "2d")
	t.Setenv("WA_CORS_ALLOWED_ORIGINS", " https://a.example.com, ,https://b.example.com")

	cfg := LoadConfig()
	if cfg.ListenAddr != "127.0.0.1:9000" || cfg.DBPath != "/tmp/areas.db" || cfg.RegistrationFile != "sidebars.yaml" {
		t.Fatalf("paths = %+v", cfg)
	}
	if cfg.ShutdownTimeout != 5*time.Second || cfg.LogFormat != "text" {
		t.Fatalf("timeouts/log = %+v", cfg)
	}
	if cfg.RateLimit != 12 || cfg.MaxBodyBytes != 2048 || cfg.KeyPurgeInterval != 48*time.Hour {
		t.Fatalf("limits = %+v", cfg)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://b.example.com" {
		t.Fatalf("origins = %v", cfg.CORSAllowedOrigins)
	}
}

func TestLoadConfigIgnoresInvalidNumbers(t *testing.T) {
	t.Setenv("WA_RATE_LIMIT", "-1")
	t.Setenv("WA_SHUTDOWN_TIMEOUT", "soon")
	cfg := LoadConfig()
	if cfg.RateLimit != 300 || cfg.ShutdownTimeout != 30*time.Second {
		t.Fatalf("cfg = %+v", cfg)
	}
}
