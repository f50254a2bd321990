package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"librarian/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantRoot := filepath.Join(tempHome, ".local", "share", "librarian", "catalogs")
	if cfg.Paths.CatalogRoot != wantRoot {
		t.Fatalf("unexpected catalog root: got %q want %q", cfg.Paths.CatalogRoot, wantRoot)
	}
	if cfg.Catalog.Overwrite != "ask" {
		t.Fatalf("expected ask overwrite policy by default, got %q", cfg.Catalog.Overwrite)
	}
	if cfg.Catalog.LoadAttempts != 12 {
		t.Fatalf("expected 12 load attempts by default, got %d", cfg.Catalog.LoadAttempts)
	}
	if cfg.LoadRetryDelay() != 5*time.Second {
		t.Fatalf("unexpected load retry delay %s", cfg.LoadRetryDelay())
	}
	if cfg.PromptTimeout() != 10*time.Second {
		t.Fatalf("unexpected prompt timeout %s", cfg.PromptTimeout())
	}
	if !cfg.Catalog.Strict {
		t.Fatal("expected strict schemas by default")
	}
	if got := cfg.CatalogDir("figures"); got != filepath.Join(wantRoot, "figures") {
		t.Fatalf("unexpected catalog dir %q", got)
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "librarian.toml")

	type payload struct {
		Paths struct {
			CatalogRoot string `toml:"catalog_root"`
		} `toml:"paths"`
		Catalog struct {
			Overwrite         string `toml:"overwrite"`
			UnrecognizedLabel string `toml:"unrecognized_label"`
			LoadAttempts      int    `toml:"load_attempts"`
		} `toml:"catalog"`
		Logging struct {
			Format string `toml:"format"`
		} `toml:"logging"`
	}
	custom := payload{}
	custom.Paths.CatalogRoot = filepath.Join(tempDir, "catalogs")
	custom.Catalog.Overwrite = "  Overwrite "
	custom.Catalog.UnrecognizedLabel = "ERROR"
	custom.Catalog.LoadAttempts = 3
	custom.Logging.Format = "JSON"
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.Paths.CatalogRoot != custom.Paths.CatalogRoot {
		t.Fatalf("unexpected catalog root %q", cfg.Paths.CatalogRoot)
	}
	if cfg.Catalog.Overwrite != "overwrite" {
		t.Fatalf("expected normalized overwrite policy, got %q", cfg.Catalog.Overwrite)
	}
	if cfg.Catalog.UnrecognizedLabel != "error" {
		t.Fatalf("expected normalized label action, got %q", cfg.Catalog.UnrecognizedLabel)
	}
	if cfg.Catalog.LoadAttempts != 3 {
		t.Fatalf("expected 3 load attempts, got %d", cfg.Catalog.LoadAttempts)
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("expected json log format, got %q", cfg.Logging.Format)
	}
}

func TestEnvVarOverridesCatalogRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "from-env")
	t.Setenv("LIBRARIAN_CATALOG_ROOT", root)

	cfg, _, _, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Paths.CatalogRoot != root {
		t.Fatalf("expected catalog root from env, got %q", cfg.Paths.CatalogRoot)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "librarian.toml")
	if err := os.WriteFile(configPath, []byte("[catalog]\noverwrit = \"skip\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(configPath); err == nil {
		t.Fatal("expected unknown key to be rejected")
	}
}

func TestCreateSample(t *testing.T) {
	target := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(target); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[catalog]") {
		t.Fatalf("sample config missing catalog section: %q", data)
	}

	// The sample must load cleanly.
	if _, _, _, err := config.Load(target); err != nil {
		t.Fatalf("sample config does not load: %v", err)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"overwrite", func(c *config.Config) { c.Catalog.Overwrite = "maybe" }, "catalog.overwrite"},
		{"prompt default", func(c *config.Config) { c.Catalog.PromptDefault = "ask" }, "catalog.prompt_default"},
		{"label action", func(c *config.Config) { c.Catalog.UnrecognizedLabel = "panic" }, "catalog.unrecognized_label"},
		{"extension action", func(c *config.Config) { c.Catalog.UnrecognizedExtension = "loud" }, "catalog.unrecognized_extension"},
		{"timeout", func(c *config.Config) { c.Catalog.PromptTimeoutSeconds = 0 }, "prompt_timeout_seconds"},
		{"attempts", func(c *config.Config) { c.Catalog.LoadAttempts = -1 }, "load_attempts"},
		{"delay", func(c *config.Config) { c.Catalog.LoadRetryDelayMillis = -5 }, "load_retry_delay_ms"},
		{"lock", func(c *config.Config) { c.Catalog.LockTimeoutSeconds = 0 }, "lock_timeout_seconds"},
		{"log format", func(c *config.Config) { c.Logging.Format = "xml" }, "logging.format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}
