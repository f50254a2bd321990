package main

import (
	"github.com/spf13/cobra"
)

const defaultCatalogName = "default"

func newRootCommand() *cobra.Command {
	var configFlag string
	var catalogFlag string
	var jsonFlag bool

	ctx := newCommandContext(&configFlag, &catalogFlag, &jsonFlag)

	rootCmd := &cobra.Command{
		Use:           "librarian",
		Short:         "Catalog data files by label and parameters",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVarP(&catalogFlag, "catalog", "n", defaultCatalogName, "Catalog name")
	rootCmd.PersistentFlags().BoolVar(&jsonFlag, "json", false, "Emit JSON instead of tables")

	rootCmd.AddCommand(newInitCommand(ctx))
	rootCmd.AddCommand(newInfoCommand(ctx))
	rootCmd.AddCommand(newListCommand(ctx))
	rootCmd.AddCommand(newGetCommand(ctx))
	rootCmd.AddCommand(newNewCommand(ctx))
	rootCmd.AddCommand(newAddCommand(ctx))
	rootCmd.AddCommand(newImportCommand(ctx))
	rootCmd.AddCommand(newRemoveCommand(ctx))
	rootCmd.AddCommand(newPurgeCommand(ctx))
	rootCmd.AddCommand(newClosestCommand(ctx))
	rootCmd.AddCommand(newParamsCommand(ctx))
	rootCmd.AddCommand(newVerifyCommand(ctx))
	rootCmd.AddCommand(newDoctorCommand(ctx))
	rootCmd.AddCommand(newWatchCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))

	return rootCmd
}
