package testsupport

import (
	"path/filepath"
	"testing"

	"librarian/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Load retries are shortened so failure paths stay fast.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.CatalogRoot = filepath.Join(base, "catalogs")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Catalog.LoadAttempts = 2
	cfgVal.Catalog.LoadRetryDelayMillis = 1
	cfgVal.Catalog.LockTimeoutSeconds = 2

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithOverwrite sets the collision policy on the test config.
func WithOverwrite(policy string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Catalog.Overwrite = policy
	}
}

// WithLenientSchemas disables strict parameter checking for new catalogs.
func WithLenientSchemas() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Catalog.Strict = false
	}
}

// WithRecognition sets the unrecognized label and extension actions.
func WithRecognition(label, extension string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Catalog.UnrecognizedLabel = label
		b.cfg.Catalog.UnrecognizedExtension = extension
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.CatalogRoot)
}
