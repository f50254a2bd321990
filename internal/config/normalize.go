package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeCatalog()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	if value, ok := os.LookupEnv("LIBRARIAN_CATALOG_ROOT"); ok && strings.TrimSpace(value) != "" {
		c.Paths.CatalogRoot = value
	}
	var err error
	if strings.TrimSpace(c.Paths.CatalogRoot) == "" {
		c.Paths.CatalogRoot = defaultCatalogRoot
	}
	if c.Paths.CatalogRoot, err = expandPath(strings.TrimSpace(c.Paths.CatalogRoot)); err != nil {
		return fmt.Errorf("paths.catalog_root: %w", err)
	}
	// An explicitly empty log_dir disables the log file.
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeCatalog() {
	c.Catalog.Overwrite = lowerOr(c.Catalog.Overwrite, defaultOverwrite)
	c.Catalog.PromptDefault = lowerOr(c.Catalog.PromptDefault, defaultPromptDefault)
	c.Catalog.UnrecognizedLabel = lowerOr(c.Catalog.UnrecognizedLabel, defaultUnrecognizedLabel)
	c.Catalog.UnrecognizedExtension = lowerOr(c.Catalog.UnrecognizedExtension, defaultUnrecognizedExtension)
	if c.Catalog.LoadAttempts == 0 {
		c.Catalog.LoadAttempts = defaultLoadAttempts
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = lowerOr(c.Logging.Format, defaultLogFormat)
	c.Logging.Level = lowerOr(c.Logging.Level, defaultLogLevel)
}

func lowerOr(value, fallback string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return fallback
	}
	return value
}
