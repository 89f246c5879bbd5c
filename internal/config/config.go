// Package config loads server configuration from an optional YAML file
// with environment-variable overrides. A .env file is honored when
// present.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Duration accepts "24h" style values in YAML.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

type Config struct {
	Addr string `yaml:"addr"`

	Database struct {
		Driver string `yaml:"driver"`
		DSN    string `yaml:"dsn"`
	} `yaml:"database"`

	Session struct {
		Secret string   `yaml:"secret"`
		TTL    Duration `yaml:"ttl"`
	} `yaml:"session"`

	Storage struct {
		Root   string `yaml:"root"`
		Secret string `yaml:"secret"`
	} `yaml:"storage"`

	Push struct {
		VAPIDPublicKey  string `yaml:"vapid_public_key"`
		VAPIDPrivateKey string `yaml:"vapid_private_key"`
		Subject         string `yaml:"subject"`
	} `yaml:"push"`
}

func defaults() *Config {
	cfg := &Config{Addr: ":8080"}
	cfg.Database.Driver = "sqlite3"
	cfg.Database.DSN = "kantoor.db"
	cfg.Session.TTL = Duration(24 * time.Hour)
	cfg.Storage.Root = "data/files"
	cfg.Push.Subject = "mailto:admin@kantoor.local"
	return cfg
}

// Load reads path (when non-empty) over the defaults, then applies env
// overrides.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := defaults()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(cfg)

	if cfg.Session.Secret == "" {
		return nil, fmt.Errorf("session secret is required (KANTOOR_SESSION_SECRET)")
	}
	if cfg.Storage.Secret == "" {
		cfg.Storage.Secret = cfg.Session.Secret
	}
	if cfg.Session.TTL <= 0 {
		cfg.Session.TTL = Duration(24 * time.Hour)
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	set := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	set(&cfg.Addr, "KANTOOR_ADDR")
	set(&cfg.Database.Driver, "KANTOOR_DB_DRIVER")
	set(&cfg.Database.DSN, "KANTOOR_DB_DSN")
	set(&cfg.Session.Secret, "KANTOOR_SESSION_SECRET")
	set(&cfg.Storage.Root, "KANTOOR_STORAGE_ROOT")
	set(&cfg.Storage.Secret, "KANTOOR_STORAGE_SECRET")
	set(&cfg.Push.VAPIDPublicKey, "KANTOOR_VAPID_PUBLIC_KEY")
	set(&cfg.Push.VAPIDPrivateKey, "KANTOOR_VAPID_PRIVATE_KEY")
	set(&cfg.Push.Subject, "KANTOOR_VAPID_SUBJECT")
}
