package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"librarian/internal/api"
	"librarian/internal/catalog"
	"librarian/internal/catalogwatch"
	"librarian/internal/preflight"
	"librarian/internal/schema"
)

func newInitCommand(ctx *commandContext) *cobra.Command {
	var description string
	var labels []string
	var extensions []string
	var params []string
	var lenient bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a new catalog",
		Long: "Create a new catalog under the catalog root.\n\n" +
			"Parameters are declared as name:kind or name:kind=default, where kind is\n" +
			"int, float, str, bool or list.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			name := ctx.catalogName()
			if catalog.Exists(cfg.CatalogDir(name), name) {
				return fmt.Errorf("catalog %s already exists at %s", name, cfg.CatalogDir(name))
			}

			strict := cfg.Catalog.Strict && !lenient
			sch := schema.New(strict)
			for _, raw := range params {
				spec, err := parseParamSpec(raw)
				if err != nil {
					return err
				}
				if err := sch.Declare(spec.Name, spec.Kind, spec.Default); err != nil {
					return err
				}
			}

			c, err := ctx.openCatalogWith(cmd, api.OpenCatalogRequest{
				Mode:                 catalog.LoadNever,
				Description:          description,
				Schema:               sch,
				RecognizedLabels:     labels,
				RecognizedExtensions: extensions,
			})
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, api.FromCatalog(c))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created catalog %s at %s\n", c.Name(), c.Path())
			return nil
		},
	}

	cmd.Flags().StringVarP(&description, "description", "d", "", "Catalog description")
	cmd.Flags().StringArrayVar(&labels, "label", nil, "Recognized data label (repeatable)")
	cmd.Flags().StringArrayVar(&extensions, "ext", nil, "Recognized file extension (repeatable)")
	cmd.Flags().StringArrayVarP(&params, "param", "p", nil, "Parameter declaration name:kind[=default] (repeatable)")
	cmd.Flags().BoolVar(&lenient, "lenient", false, "Accept undeclared parameters")
	return cmd
}

func newInfoCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show catalog metadata and declared parameters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := ctx.openCatalog(cmd, catalog.LoadRequired)
			if err != nil {
				return err
			}
			info := api.FromCatalog(c)
			if ctx.jsonOutput() {
				return writeJSON(cmd, info)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Name:        %s\n", info.Name)
			fmt.Fprintf(out, "Location:    %s\n", info.Path)
			if info.Description != "" {
				fmt.Fprintf(out, "Description: %s\n", info.Description)
			}
			fmt.Fprintf(out, "Entries:     %d\n", info.Entries)
			fmt.Fprintf(out, "Labels:      %s\n", joinOrNone(info.Labels))
			fmt.Fprintf(out, "Recognized:  labels %s; extensions %s\n", joinOrNone(info.RecognizedLabels), joinOrNone(info.RecognizedExtensions))
			fmt.Fprintf(out, "Strict:      %s\n", yesNo(info.Strict))
			fmt.Fprintf(out, "Created:     %s\n", info.CreatedAt)
			fmt.Fprintf(out, "Modified:    %s\n", info.ModifiedAt)
			if len(info.Parameters) > 0 {
				fmt.Fprintln(out)
				fmt.Fprintln(out, renderParameters(info.Parameters))
			}
			return nil
		},
	}
}

func newVerifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Cross-check the catalog views and report missing files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			name := ctx.catalogName()
			result := preflight.CheckCatalog(commandContextOf(cmd), cfg.CatalogDir(name), name, cfg.LockTimeout())
			if ctx.jsonOutput() {
				if err := writeJSON(cmd, result); err != nil {
					return err
				}
			} else {
				kind := statusOK
				if !result.Passed {
					kind = statusError
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderStatusLine(result.Name, kind, result.Detail, shouldColorize(cmd.OutOrStdout())))
			}
			if !result.Passed {
				return fmt.Errorf("catalog %s failed verification", name)
			}
			return nil
		},
	}
}

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check directories and every catalog under the catalog root",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			results := preflight.RunAll(commandContextOf(cmd), cfg)
			if ctx.jsonOutput() {
				return writeJSON(cmd, results)
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			for _, line := range renderSectionHeader("librarian health", colorize) {
				fmt.Fprintln(out, line)
			}
			fmt.Fprintln(out, renderStatusLine("Config", statusInfo, ctx.configPath, colorize))
			failed := 0
			for _, r := range results {
				kind := statusOK
				if !r.Passed {
					kind = statusError
					failed++
				}
				fmt.Fprintln(out, renderStatusLine(r.Name, kind, r.Detail, colorize))
			}
			if failed > 0 {
				return fmt.Errorf("%d check(s) failed", failed)
			}
			return nil
		},
	}
}

func newWatchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Follow the catalog and report changes made by other processes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := ctx.openCatalog(cmd, catalog.LoadRequired)
			if err != nil {
				return err
			}
			runCtx, stop := signal.NotifyContext(commandContextOf(cmd), os.Interrupt, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Watching %s (%d entries). Press Ctrl+C to stop.\n", c.Path(), c.Len())
			return catalogwatch.Follow(runCtx, c, catalogwatch.Options{Logger: ctx.loggerValue()}, func(change catalogwatch.Change, err error) {
				stamp := change.At.Format("15:04:05")
				switch {
				case change.Removed:
					fmt.Fprintf(out, "%s catalog document removed\n", stamp)
				case err != nil:
					fmt.Fprintf(out, "%s reload failed: %v\n", stamp, err)
				default:
					fmt.Fprintf(out, "%s reloaded: %d entries\n", stamp, c.Len())
				}
			})
		},
	}
}

func renderParameters(params []api.ParameterView) string {
	rows := make([][]string, 0, len(params))
	for _, p := range params {
		def := "(required)"
		if !p.Required {
			def = fmt.Sprint(p.Default)
		}
		rows = append(rows, []string{p.Name, p.Kind, def})
	}
	return renderTable([]string{"Parameter", "Kind", "Default"}, rows, nil)
}

func joinOrNone(values []string) string {
	if len(values) == 0 {
		return "(none)"
	}
	return strings.Join(values, ", ")
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
