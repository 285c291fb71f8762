package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if diff := cmp.Diff(Defaults(), cfg); diff != "" {
		t.Fatalf("defaults mismatch (-want +got):\n%s", diff)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pagecms.yaml")
	data := []byte(`
addr: ":9000"
log_format: console
store:
  kind: SQLite
  path: /var/lib/pagecms.db
  timeout: 5s
editor:
  max_sessions: 8
  session_ttl: 10m
  sanitize_values: true
theme:
  name: bakery
  tokens:
    color-text: "#222"
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("PAGECMS_ADDR", ":9100")
	t.Setenv("PAGECMS_API_KEY", "secret")
	t.Setenv("PAGECMS_MAX_DEPTH", "6")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":9100" || cfg.APIKey != "secret" {
		t.Fatalf("env overrides not applied: %+v", cfg)
	}
	if cfg.Store.Kind != StoreSQLite || cfg.Store.Path != "/var/lib/pagecms.db" || cfg.Store.Timeout != 5*time.Second {
		t.Fatalf("store settings not loaded: %+v", cfg.Store)
	}
	if cfg.Editor.MaxDepth != 6 || cfg.Editor.MaxSessions != 8 || cfg.Editor.SessionTTL != 10*time.Minute || !cfg.Editor.SanitizeValues {
		t.Fatalf("editor settings not loaded: %+v", cfg.Editor)
	}
	if cfg.Editor.CleanupInterval != time.Minute {
		t.Fatalf("cleanup interval should keep its default, got %s", cfg.Editor.CleanupInterval)
	}
	if cfg.Theme.Name != "bakery" || cfg.Theme.Tokens["color-text"] != "#222" {
		t.Fatalf("theme not loaded: %+v", cfg.Theme)
	}
	if cfg.LogFormat != "console" {
		t.Fatalf("log format not loaded: %q", cfg.LogFormat)
	}
}

func TestLoad_Errors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected missing file to fail")
	}
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("store: [\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected malformed yaml to fail")
	}
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"unknown kind":      func(c *Config) { c.Store.Kind = "redis" },
		"file without path": func(c *Config) { c.Store.Path = "" },
		"remote without url": func(c *Config) {
			c.Store.Kind = StoreRemote
			c.Store.URL = ""
		},
		"bad level":  func(c *Config) { c.LogLevel = "loud" },
		"bad format": func(c *Config) { c.LogFormat = "xml" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Defaults()
			mutate(&cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalid) {
				t.Fatalf("expected ErrInvalid, got %v", err)
			}
		})
	}

	cfg := Defaults()
	cfg.Store.Kind = StoreMemory
	cfg.Store.Path = ""
	if err := cfg.Validate(); err != nil {
		t.Fatalf("memory store needs no path: %v", err)
	}
}
