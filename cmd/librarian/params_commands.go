package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"librarian/internal/api"
	"librarian/internal/catalog"
	"librarian/internal/schema"
)

func newParamsCommand(ctx *commandContext) *cobra.Command {
	paramsCmd := &cobra.Command{
		Use:   "params",
		Short: "Inspect and migrate catalog parameters",
	}
	paramsCmd.AddCommand(newParamsListCommand(ctx))
	paramsCmd.AddCommand(newParamsAddCommand(ctx))
	paramsCmd.AddCommand(newParamsRemoveCommand(ctx))
	paramsCmd.AddCommand(newParamsRenameCommand(ctx))
	return paramsCmd
}

func newParamsListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List declared parameters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := ctx.openCatalog(cmd, catalog.LoadRequired)
			if err != nil {
				return err
			}
			params := api.FromSchema(c.Schema())
			if ctx.jsonOutput() {
				return writeJSON(cmd, params)
			}
			if len(params) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No declared parameters")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderParameters(params))
			return nil
		},
	}
}

func newParamsAddCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "add NAME:KIND=DEFAULT...",
		Short: "Declare parameters and backfill their defaults into existing entries",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			specs := make([]catalog.ParamSpec, 0, len(args))
			for _, raw := range args {
				spec, err := parseParamSpec(raw)
				if err != nil {
					return err
				}
				if spec.Default == nil {
					return fmt.Errorf("parameter %s needs a default so existing entries can be backfilled", spec.Name)
				}
				specs = append(specs, spec)
			}
			c, err := ctx.openCatalog(cmd, catalog.LoadRequired)
			if err != nil {
				return err
			}
			if err := c.AddParameters(commandContextOf(cmd), specs...); err != nil {
				return err
			}
			for _, spec := range specs {
				fmt.Fprintf(cmd.OutOrStdout(), "Declared %s (%s)\n", spec.Name, spec.Kind)
			}
			return nil
		},
	}
}

func newParamsRemoveCommand(ctx *commandContext) *cobra.Command {
	var filters filterFlags

	cmd := &cobra.Command{
		Use:   "remove NAME",
		Short: "Drop a parameter from entries (and from the schema when unfiltered)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := filters.filter()
			if err != nil {
				return err
			}
			c, err := ctx.openCatalog(cmd, catalog.LoadRequired)
			if err != nil {
				return err
			}
			if err := c.RemoveParameter(commandContextOf(cmd), args[0], f); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed parameter %s\n", args[0])
			return nil
		},
	}
	filters.register(cmd)
	return cmd
}

func newParamsRenameCommand(ctx *commandContext) *cobra.Command {
	var filters filterFlags
	var kind string
	var keepOld bool
	var defaultValue string

	cmd := &cobra.Command{
		Use:   "rename OLD NEW",
		Short: "Rename or retype a parameter across existing entries",
		Long: "Rename OLD to NEW on every entry holding OLD. Pass the same name twice\n" +
			"with --kind to retype in place.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := filters.filter()
			if err != nil {
				return err
			}
			t := catalog.Transmutation{
				Old:     args[0],
				New:     []string{args[1]},
				Filter:  f,
				KeepOld: keepOld,
			}
			if kind != "" {
				if t.Kind, err = schema.ParseKind(kind); err != nil {
					return err
				}
			}
			if cmd.Flags().Changed("default") {
				t.Defaults = map[string]any{args[1]: defaultValue}
			}

			c, err := ctx.openCatalog(cmd, catalog.LoadRequired)
			if err != nil {
				return err
			}
			if err := c.TransmuteParameter(commandContextOf(cmd), t); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Migrated %s to %s\n", args[0], args[1])
			return nil
		},
	}
	filters.register(cmd)
	cmd.Flags().StringVar(&kind, "kind", "", "New kind: int, float, str, bool or list")
	cmd.Flags().StringVar(&defaultValue, "default", "", "Default for the new parameter")
	cmd.Flags().BoolVar(&keepOld, "keep-old", false, "Keep the old parameter alongside the new one")
	return cmd
}

// parseParamSpec reads name:kind or name:kind=default. The default stays a
// string; the schema coerces it to kind.
func parseParamSpec(raw string) (catalog.ParamSpec, error) {
	decl, def, hasDefault := strings.Cut(raw, "=")
	name, kindName, ok := strings.Cut(decl, ":")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return catalog.ParamSpec{}, fmt.Errorf("invalid parameter declaration %q (want name:kind[=default])", raw)
	}
	kind, err := schema.ParseKind(kindName)
	if err != nil {
		return catalog.ParamSpec{}, err
	}
	spec := catalog.ParamSpec{Name: name, Kind: kind}
	if hasDefault {
		spec.Default = strings.TrimSpace(def)
	}
	return spec, nil
}
