package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadRequiresSessionSecret(t *testing.T) {
	os.Unsetenv("KANTOOR_SESSION_SECRET")
	if _, err := Load(""); err == nil {
		t.Error("Expected an error without a session secret")
	}
}

func TestLoadDefaultsAndEnvOverride(t *testing.T) {
	t.Setenv("KANTOOR_SESSION_SECRET", "s3cret")
	t.Setenv("KANTOOR_ADDR", ":9999")

	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Addr != ":9999" {
		t.Errorf("Expected env override for addr, got %q", cfg.Addr)
	}
	if cfg.Database.Driver != "sqlite3" {
		t.Errorf("Expected default driver sqlite3, got %q", cfg.Database.Driver)
	}
	if cfg.Session.TTL != Duration(24*time.Hour) {
		t.Errorf("Expected default ttl 24h, got %v", cfg.Session.TTL)
	}
	// Storage secret falls back to the session secret
	if cfg.Storage.Secret != "s3cret" {
		t.Errorf("Expected storage secret fallback, got %q", cfg.Storage.Secret)
	}
}

func TestLoadYAMLFile(t *testing.T) {
	t.Setenv("KANTOOR_SESSION_SECRET", "s3cret")
	os.Unsetenv("KANTOOR_ADDR")

	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := []byte("addr: \":7070\"\ndatabase:\n  driver: postgres\n  dsn: postgres://localhost/kantoor\nsession:\n  ttl: 1h\n")
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Addr != ":7070" || cfg.Database.Driver != "postgres" {
		t.Errorf("Expected file values, got %+v", cfg)
	}
	if cfg.Session.TTL != Duration(time.Hour) {
		t.Errorf("Expected ttl 1h from file, got %v", cfg.Session.TTL)
	}
}
