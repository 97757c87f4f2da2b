package resurrect

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Settings is the YAML configuration for the demo service. Environment
// variables override the file so deployments can keep keys out of the tree.
type Settings struct {
	Listen  string `yaml:"listen"`
	Backend struct {
		URL string `yaml:"url"`
	} `yaml:"backend"`
	Archive struct {
		URL string `yaml:"url"`
		Key string `yaml:"key"`
	} `yaml:"archive"`
	Cache struct {
		RedisAddr string        `yaml:"redis_addr"`
		TTL       time.Duration `yaml:"ttl"`
	} `yaml:"cache"`
	LogLevel string `yaml:"log_level"`
}

// DefaultSettings returns the local-demo configuration: no backend, no
// archive, no cache. Everything falls back to the scripted path.
func DefaultSettings() *Settings {
	s := &Settings{Listen: ":8080", LogLevel: "info"}
	s.Cache.TTL = 24 * time.Hour
	return s
}

// LoadSettings reads path (when non-empty) and applies env overrides.
func LoadSettings(path string) (*Settings, error) {
	s := DefaultSettings()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read settings %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, s); err != nil {
			return nil, fmt.Errorf("parse settings %s: %w", path, err)
		}
	}

	if v := os.Getenv("RESURRECT_LISTEN"); v != "" {
		s.Listen = v
	}
	if v := os.Getenv("RESURRECT_BACKEND_URL"); v != "" {
		s.Backend.URL = v
	}
	if v := os.Getenv("SUPABASE_URL"); v != "" {
		s.Archive.URL = v
	}
	if v := os.Getenv("SUPABASE_KEY"); v != "" {
		s.Archive.Key = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		s.Cache.RedisAddr = v
	}
	if s.Cache.TTL <= 0 {
		s.Cache.TTL = 24 * time.Hour
	}
	return s, nil
}

// Level maps the configured log level onto slog.
func (s *Settings) Level() slog.Level {
	switch s.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
