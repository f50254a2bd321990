package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"librarian/internal/api"
	"librarian/internal/config"
	"librarian/internal/filename"
	"librarian/internal/logging"
	"librarian/internal/preflight"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create the librarian configuration",
	}
	configCmd.AddCommand(newConfigValidateCommand(ctx))
	configCmd.AddCommand(newConfigInitCommand())
	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a sample configuration with the default catalog policies",
		Long: `Write a sample configuration file.

The sample sets the catalog root, the overwrite policy used when a new
filename collides with a cataloged one, and the handling of labels and
extensions outside a catalog's recognized vocabulary.`,
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := resolveConfigTarget(targetPath)
			if err != nil {
				return err
			}
			if !overwrite {
				if _, err := os.Stat(target); err == nil {
					return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
				} else if !os.IsNotExist(err) {
					return fmt.Errorf("check config path: %w", err)
				}
			}
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return fmt.Errorf("create config directory: %w", err)
			}
			if err := config.CreateSample(target); err != nil {
				return fmt.Errorf("create sample config: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
			fmt.Fprintln(out, "Next: set paths.catalog_root, then run `librarian init` to create the default catalog.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace an existing configuration file")
	return cmd
}

func resolveConfigTarget(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		path, err := config.DefaultConfigPath()
		if err != nil {
			return "", fmt.Errorf("determine default config path: %w", err)
		}
		return path, nil
	}
	path, err := config.ExpandPath(raw)
	if err != nil {
		return "", fmt.Errorf("resolve config path: %w", err)
	}
	return path, nil
}

// configReport is the resolved form of a configuration: the policies every
// catalog opened with it will use.
type configReport struct {
	Path                  string   `json:"path"`
	FileExists            bool     `json:"fileExists"`
	CatalogRoot           string   `json:"catalogRoot"`
	LogFile               string   `json:"logFile,omitempty"`
	Overwrite             string   `json:"overwrite"`
	PromptDefault         string   `json:"promptDefault,omitempty"`
	PromptTimeout         string   `json:"promptTimeout,omitempty"`
	UnrecognizedLabel     string   `json:"unrecognizedLabel"`
	UnrecognizedExtension string   `json:"unrecognizedExtension"`
	LoadAttempts          int      `json:"loadAttempts"`
	LoadRetryDelay        string   `json:"loadRetryDelay"`
	LockTimeout           string   `json:"lockTimeout"`
	StrictSchemas         bool     `json:"strictSchemas"`
	Catalogs              []string `json:"catalogs"`
}

// buildConfigReport resolves the policies the same way catalogs are opened,
// so a value that loads but cannot be applied fails here too.
func buildConfigReport(cfg *config.Config, path string, exists bool) (configReport, error) {
	if _, err := api.ResolverFromConfig(cfg, strings.NewReader(""), io.Discard); err != nil {
		return configReport{}, fmt.Errorf("catalog.overwrite: %w", err)
	}
	labelAction, err := filename.ParseAction(cfg.Catalog.UnrecognizedLabel)
	if err != nil {
		return configReport{}, fmt.Errorf("catalog.unrecognized_label: %w", err)
	}
	extAction, err := filename.ParseAction(cfg.Catalog.UnrecognizedExtension)
	if err != nil {
		return configReport{}, fmt.Errorf("catalog.unrecognized_extension: %w", err)
	}

	report := configReport{
		Path:                  path,
		FileExists:            exists,
		CatalogRoot:           cfg.Paths.CatalogRoot,
		Overwrite:             cfg.Catalog.Overwrite,
		UnrecognizedLabel:     string(labelAction),
		UnrecognizedExtension: string(extAction),
		LoadAttempts:          cfg.Catalog.LoadAttempts,
		LoadRetryDelay:        cfg.LoadRetryDelay().String(),
		LockTimeout:           cfg.LockTimeout().String(),
		StrictSchemas:         cfg.Catalog.Strict,
		Catalogs:              preflight.DiscoverCatalogs(cfg.Paths.CatalogRoot),
	}
	if cfg.Paths.LogDir != "" {
		report.LogFile = filepath.Join(cfg.Paths.LogDir, logging.LogFileName)
	}
	if cfg.Catalog.Overwrite == "ask" {
		report.PromptDefault = cfg.Catalog.PromptDefault
		report.PromptTimeout = cfg.PromptTimeout().String()
	}
	if report.Catalogs == nil {
		report.Catalogs = []string{}
	}
	return report, nil
}

func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:         "validate",
		Short:       "Load the configuration and show the catalog policies it resolves to",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, exists, err := config.Load(ctx.configFlagValue())
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return fmt.Errorf("ensure directories: %w", err)
			}
			report, err := buildConfigReport(cfg, path, exists)
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, report)
			}
			renderConfigReport(cmd.OutOrStdout(), report)
			return nil
		},
	}
}

func renderConfigReport(out io.Writer, r configReport) {
	colorize := shouldColorize(out)
	for _, line := range renderSectionHeader("librarian configuration", colorize) {
		fmt.Fprintln(out, line)
	}
	if r.FileExists {
		fmt.Fprintln(out, renderStatusLine("Config", statusInfo, r.Path, colorize))
	} else {
		fmt.Fprintln(out, renderStatusLine("Config", statusWarn, r.Path+" not found; defaults in use", colorize))
	}
	fmt.Fprintln(out, renderStatusLine("Catalog root", statusInfo, r.CatalogRoot, colorize))
	logFile := r.LogFile
	if logFile == "" {
		logFile = "disabled"
	}
	fmt.Fprintln(out, renderStatusLine("Log file", statusInfo, logFile, colorize))

	overwrite := r.Overwrite
	if r.PromptDefault != "" {
		overwrite = fmt.Sprintf("%s (%s after %s without an answer)", r.Overwrite, r.PromptDefault, r.PromptTimeout)
	}
	fmt.Fprintln(out, renderStatusLine("Overwrite policy", statusInfo, overwrite, colorize))
	fmt.Fprintln(out, renderStatusLine("Unrecognized labels", statusInfo, r.UnrecognizedLabel, colorize))
	fmt.Fprintln(out, renderStatusLine("Unrecognized extensions", statusInfo, r.UnrecognizedExtension, colorize))
	fmt.Fprintln(out, renderStatusLine("Load retry", statusInfo, fmt.Sprintf("%d attempts, %s apart", r.LoadAttempts, r.LoadRetryDelay), colorize))
	fmt.Fprintln(out, renderStatusLine("Lock timeout", statusInfo, r.LockTimeout, colorize))
	fmt.Fprintln(out, renderStatusLine("Strict schemas", statusInfo, yesNo(r.StrictSchemas), colorize))
	fmt.Fprintln(out, renderStatusLine("Catalogs", statusInfo, joinOrNone(r.Catalogs), colorize))
	fmt.Fprintln(out, "Configuration valid")
}
