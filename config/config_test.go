package config

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, key := range []string{
		"MAX_LOGIN_ATTEMPTS", "LOCK_TIME_MINUTES", "PASSWORD_HASH_ROUNDS",
		"STORE_DRIVER", "SERVER_PORT", "CORS_ALLOWED_ORIGINS", "JWT_TTL",
	} {
		t.Setenv(key, "")
	}
	// t.Setenv leaves the key present; the empty values exercise the fallbacks.
	cfg := LoadConfig()

	if cfg.Auth.MaxLoginAttempts != 5 {
		t.Fatalf("expected 5 max attempts, got %d", cfg.Auth.MaxLoginAttempts)
	}
	if cfg.Auth.LockTime != 15*time.Minute {
		t.Fatalf("expected 15m lock time, got %s", cfg.Auth.LockTime)
	}
	if cfg.Auth.HashCost != 12 {
		t.Fatalf("expected hash cost 12, got %d", cfg.Auth.HashCost)
	}
	if cfg.Auth.TokenTTL != 24*time.Hour {
		t.Fatalf("expected 24h token ttl, got %s", cfg.Auth.TokenTTL)
	}
	if cfg.ServerPort != 8080 {
		t.Fatalf("expected port 8080, got %d", cfg.ServerPort)
	}
	if len(cfg.HTTP.AllowedOrigins) != 1 || cfg.HTTP.AllowedOrigins[0] != "*" {
		t.Fatalf("unexpected origins: %v", cfg.HTTP.AllowedOrigins)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("MAX_LOGIN_ATTEMPTS", "3")
	t.Setenv("LOCK_TIME_MINUTES", "1")
	t.Setenv("PASSWORD_HASH_ROUNDS", "4")
	t.Setenv("STORE_DRIVER", "Mongo")
	t.Setenv("DB_USE_SSL", "true")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("JWT_TTL", "90m")

	cfg := LoadConfig()

	if cfg.Auth.MaxLoginAttempts != 3 {
		t.Fatalf("expected 3 max attempts, got %d", cfg.Auth.MaxLoginAttempts)
	}
	if cfg.Auth.LockTime != time.Minute {
		t.Fatalf("expected 1m lock time, got %s", cfg.Auth.LockTime)
	}
	if cfg.Auth.HashCost != 4 {
		t.Fatalf("expected hash cost 4, got %d", cfg.Auth.HashCost)
	}
	if cfg.StoreDriver != StoreDriverMongo {
		t.Fatalf("expected mongo driver, got %q", cfg.StoreDriver)
	}
	if !cfg.Database.UseSSL {
		t.Fatalf("expected ssl enabled")
	}
	if len(cfg.HTTP.AllowedOrigins) != 2 || cfg.HTTP.AllowedOrigins[1] != "https://b.example" {
		t.Fatalf("unexpected origins: %v", cfg.HTTP.AllowedOrigins)
	}
	if cfg.Auth.TokenTTL != 90*time.Minute {
		t.Fatalf("expected 90m token ttl, got %s", cfg.Auth.TokenTTL)
	}
}

func TestGetEnvIntInvalidFallsBack(t *testing.T) {
	t.Setenv("MAX_LOGIN_ATTEMPTS", "lots")
	if got := getEnvInt("MAX_LOGIN_ATTEMPTS", 5); got != 5 {
		t.Fatalf("expected fallback 5, got %d", got)
	}
}
