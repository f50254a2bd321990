package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateCatalog(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateCatalog() error {
	switch c.Catalog.Overwrite {
	case "ask", "overwrite", "skip", "cancel":
	default:
		return fmt.Errorf("catalog.overwrite must be one of ask, overwrite, skip, cancel (got %q)", c.Catalog.Overwrite)
	}
	switch c.Catalog.PromptDefault {
	case "overwrite", "skip", "cancel":
	default:
		return fmt.Errorf("catalog.prompt_default must be one of overwrite, skip, cancel (got %q)", c.Catalog.PromptDefault)
	}
	for name, value := range map[string]string{
		"catalog.unrecognized_label":     c.Catalog.UnrecognizedLabel,
		"catalog.unrecognized_extension": c.Catalog.UnrecognizedExtension,
	} {
		switch value {
		case "ignore", "warn", "error":
		default:
			return fmt.Errorf("%s must be one of ignore, warn, error (got %q)", name, value)
		}
	}
	if c.Catalog.PromptTimeoutSeconds <= 0 {
		return errors.New("catalog.prompt_timeout_seconds must be positive")
	}
	if c.Catalog.LoadAttempts < 1 {
		return errors.New("catalog.load_attempts must be at least 1")
	}
	if c.Catalog.LoadRetryDelayMillis < 0 {
		return errors.New("catalog.load_retry_delay_ms must not be negative")
	}
	if c.Catalog.LockTimeoutSeconds <= 0 {
		return errors.New("catalog.lock_timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json (got %q)", c.Logging.Format)
	}
	return nil
}
