package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	CatalogRoot string `toml:"catalog_root"`
	LogDir      string `toml:"log_dir"`
}

// Catalog contains the policies applied to every catalog opened through the CLI.
type Catalog struct {
	// Overwrite is the collision policy: ask, overwrite, skip or cancel.
	Overwrite string `toml:"overwrite"`
	// PromptDefault is the decision taken when an interactive prompt times out.
	PromptDefault        string `toml:"prompt_default"`
	PromptTimeoutSeconds int    `toml:"prompt_timeout_seconds"`
	// UnrecognizedLabel and UnrecognizedExtension are ignore, warn or error.
	UnrecognizedLabel     string `toml:"unrecognized_label"`
	UnrecognizedExtension string `toml:"unrecognized_extension"`
	LoadAttempts          int    `toml:"load_attempts"`
	LoadRetryDelayMillis  int    `toml:"load_retry_delay_ms"`
	LockTimeoutSeconds    int    `toml:"lock_timeout_seconds"`
	Strict                bool   `toml:"strict"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for librarian.
//
// Configuration sections:
//   - Paths: where catalogs and log files live
//   - Catalog: collision, recognition, retry and locking policies
//   - Logging: log format and level
type Config struct {
	Paths   Paths   `toml:"paths"`
	Catalog Catalog `toml:"catalog"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("librarian.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the catalog root and log directory.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.CatalogRoot, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// CatalogDir returns the directory holding the named catalog.
func (c *Config) CatalogDir(name string) string {
	return filepath.Join(c.Paths.CatalogRoot, name)
}

// PromptTimeout returns the interactive overwrite prompt timeout.
func (c *Config) PromptTimeout() time.Duration {
	return time.Duration(c.Catalog.PromptTimeoutSeconds) * time.Second
}

// LoadRetryDelay returns the fixed delay between catalog load attempts.
func (c *Config) LoadRetryDelay() time.Duration {
	return time.Duration(c.Catalog.LoadRetryDelayMillis) * time.Millisecond
}

// LockTimeout returns how long to wait for the catalog file lock.
func (c *Config) LockTimeout() time.Duration {
	return time.Duration(c.Catalog.LockTimeoutSeconds) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
