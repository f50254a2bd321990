package main

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"librarian/internal/api"
	"librarian/internal/catalog"
	"librarian/internal/config"
	"librarian/internal/logging"
)

type commandContext struct {
	configFlag  *string
	catalogFlag *string
	jsonFlag    *bool

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
}

func newCommandContext(configFlag, catalogFlag *string, jsonFlag *bool) *commandContext {
	return &commandContext{
		configFlag:  configFlag,
		catalogFlag: catalogFlag,
		jsonFlag:    jsonFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, path, _, err := config.Load(c.configFlagValue())
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = path
	})
	return c.config, c.configErr
}

func (c *commandContext) configFlagValue() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

func (c *commandContext) catalogName() string {
	if c.catalogFlag == nil || strings.TrimSpace(*c.catalogFlag) == "" {
		return defaultCatalogName
	}
	return strings.TrimSpace(*c.catalogFlag)
}

func (c *commandContext) jsonOutput() bool {
	return c.jsonFlag != nil && *c.jsonFlag
}

// loggerValue builds the CLI logger once. A broken log setup degrades to a
// console logger on stderr rather than failing the command.
func (c *commandContext) loggerValue() *slog.Logger {
	c.loggerOnce.Do(func() {
		cfg, _ := c.ensureConfig()
		logger, err := logging.NewFromConfig(cfg)
		if err != nil {
			logger, _ = logging.New(logging.Options{Level: "info", Format: "console"})
		}
		c.logger = logger
	})
	return c.logger
}

// openCatalog opens the catalog named by --catalog. The overwrite prompt
// reads the command's stdin and writes to its stderr.
func (c *commandContext) openCatalog(cmd *cobra.Command, mode catalog.LoadMode) (*catalog.Catalog, error) {
	return c.openCatalogWith(cmd, api.OpenCatalogRequest{Mode: mode})
}

func (c *commandContext) openCatalogWith(cmd *cobra.Command, req api.OpenCatalogRequest) (*catalog.Catalog, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	req.Config = cfg
	req.Name = c.catalogName()
	req.Logger = c.loggerValue()
	req.In = cmd.InOrStdin()
	req.Out = cmd.ErrOrStderr()
	return api.OpenCatalog(commandContextOf(cmd), req)
}

func commandContextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
