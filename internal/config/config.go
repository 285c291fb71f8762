// Package config loads pagecms settings from an optional YAML file and
// PAGECMS_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Store kinds.
const (
	StoreFile   = "file"
	StoreSQLite = "sqlite"
	StoreRemote = "remote"
	StoreMemory = "memory"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("config: invalid")

type Config struct {
	Addr      string `yaml:"addr"`
	APIKey    string `yaml:"api_key"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	// ValidateRequests checks /api requests against the embedded OpenAPI
	// document before they reach a handler.
	ValidateRequests bool `yaml:"validate_requests"`

	Store  StoreConfig  `yaml:"store"`
	Editor EditorConfig `yaml:"editor"`
	Theme  ThemeConfig  `yaml:"theme"`
}

type StoreConfig struct {
	Kind    string        `yaml:"kind"`
	Path    string        `yaml:"path"`
	URL     string        `yaml:"url"`
	Token   string        `yaml:"token"`
	Timeout time.Duration `yaml:"timeout"`
	App     string        `yaml:"app"`
	Watch   bool          `yaml:"watch"`
}

type EditorConfig struct {
	MaxDepth        int           `yaml:"max_depth"`
	MaxSessions     int           `yaml:"max_sessions"`
	SessionTTL      time.Duration `yaml:"session_ttl"`
	CleanupInterval time.Duration `yaml:"cleanup_interval"`
	SanitizeValues  bool          `yaml:"sanitize_values"`
}

type ThemeConfig struct {
	Name    string            `yaml:"name"`
	Variant string            `yaml:"variant"`
	Tokens  map[string]string `yaml:"tokens"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	return Config{
		Addr:             ":8080",
		LogLevel:         "info",
		LogFormat:        "json",
		ValidateRequests: true,
		Store: StoreConfig{
			Kind:    StoreFile,
			Path:    "content.json",
			Timeout: 30 * time.Second,
			App:     "default",
		},
		Editor: EditorConfig{
			MaxDepth:        4,
			MaxSessions:     256,
			SessionTTL:      30 * time.Minute,
			CleanupInterval: time.Minute,
		},
		Theme: ThemeConfig{
			Name: "default",
		},
	}
}

// Load reads path when it is not empty, then applies environment overrides
// and fills unset values with defaults.
func Load(path string) (Config, error) {
	cfg := Defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	applyEnv(&cfg)
	cfg.normalize()
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Addr = envOr("PAGECMS_ADDR", cfg.Addr)
	cfg.APIKey = envOr("PAGECMS_API_KEY", cfg.APIKey)
	cfg.LogLevel = envOr("PAGECMS_LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = envOr("PAGECMS_LOG_FORMAT", cfg.LogFormat)
	cfg.ValidateRequests = envBool("PAGECMS_VALIDATE_REQUESTS", cfg.ValidateRequests)

	cfg.Store.Kind = envOr("PAGECMS_STORE_KIND", cfg.Store.Kind)
	cfg.Store.Path = envOr("PAGECMS_STORE_PATH", cfg.Store.Path)
	cfg.Store.URL = envOr("PAGECMS_STORE_URL", cfg.Store.URL)
	cfg.Store.Token = envOr("PAGECMS_STORE_TOKEN", cfg.Store.Token)
	cfg.Store.Timeout = envDuration("PAGECMS_STORE_TIMEOUT", cfg.Store.Timeout)
	cfg.Store.App = envOr("PAGECMS_STORE_APP", cfg.Store.App)
	cfg.Store.Watch = envBool("PAGECMS_STORE_WATCH", cfg.Store.Watch)

	cfg.Editor.MaxDepth = envInt("PAGECMS_MAX_DEPTH", cfg.Editor.MaxDepth)
	cfg.Editor.MaxSessions = envInt("PAGECMS_MAX_SESSIONS", cfg.Editor.MaxSessions)
	cfg.Editor.SessionTTL = envDuration("PAGECMS_SESSION_TTL", cfg.Editor.SessionTTL)
	cfg.Editor.CleanupInterval = envDuration("PAGECMS_CLEANUP_INTERVAL", cfg.Editor.CleanupInterval)
	cfg.Editor.SanitizeValues = envBool("PAGECMS_SANITIZE_VALUES", cfg.Editor.SanitizeValues)

	cfg.Theme.Name = envOr("PAGECMS_THEME", cfg.Theme.Name)
	cfg.Theme.Variant = envOr("PAGECMS_THEME_VARIANT", cfg.Theme.Variant)
}

func (c *Config) normalize() {
	def := Defaults()
	c.Store.Kind = strings.ToLower(strings.TrimSpace(c.Store.Kind))
	c.LogFormat = strings.ToLower(strings.TrimSpace(c.LogFormat))
	if c.Addr == "" {
		c.Addr = def.Addr
	}
	if c.Store.Timeout <= 0 {
		c.Store.Timeout = def.Store.Timeout
	}
	if c.Store.App == "" {
		c.Store.App = def.Store.App
	}
	if c.Editor.MaxDepth <= 0 {
		c.Editor.MaxDepth = def.Editor.MaxDepth
	}
	if c.Editor.MaxSessions <= 0 {
		c.Editor.MaxSessions = def.Editor.MaxSessions
	}
	if c.Editor.CleanupInterval <= 0 {
		c.Editor.CleanupInterval = def.Editor.CleanupInterval
	}
}

// Validate checks the settings needed by the selected store kind.
func (c Config) Validate() error {
	var errs []error
	switch c.Store.Kind {
	case StoreFile, StoreSQLite:
		if strings.TrimSpace(c.Store.Path) == "" {
			errs = append(errs, fmt.Errorf("store.path is required for %s stores", c.Store.Kind))
		}
	case StoreRemote:
		if strings.TrimSpace(c.Store.URL) == "" {
			errs = append(errs, errors.New("store.url is required for remote stores"))
		}
	case StoreMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown store.kind %q", c.Store.Kind))
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("log_level: %w", err))
	}
	switch c.LogFormat {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("unknown log_format %q", c.LogFormat))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
