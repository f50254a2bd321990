package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"librarian/internal/api"
	"librarian/internal/catalog"
)

// filterFlags are shared by commands that select entries.
type filterFlags struct {
	labels []string
	where  []string
}

func (f *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringArrayVarP(&f.labels, "label", "l", nil, "Only entries with this label (repeatable)")
	cmd.Flags().StringArrayVarP(&f.where, "where", "w", nil, "Only entries with name=value (repeatable; repeated names accept any value)")
}

func (f *filterFlags) filter() (catalog.Filter, error) {
	return api.ParseFilter(f.labels, f.where)
}

// labelAndParams splits LABEL [name=value...] positional arguments.
func labelAndParams(args []string) (string, map[string]any, error) {
	if len(args) == 0 {
		return "", nil, errors.New("a data label is required")
	}
	params, err := api.ParseAssignments(args[1:])
	if err != nil {
		return "", nil, err
	}
	return args[0], params, nil
}

func newListCommand(ctx *commandContext) *cobra.Command {
	var filters filterFlags
	var newest bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List cataloged files",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := filters.filter()
			if err != nil {
				return err
			}
			c, err := ctx.openCatalog(cmd, catalog.LoadRequired)
			if err != nil {
				return err
			}
			all, err := c.Entries(catalog.Filter{})
			if err != nil {
				return err
			}
			views := api.FromEntries(all)
			if !f.IsZero() {
				views, err = keepMatching(c, f, views)
				if err != nil {
					return err
				}
			}
			if newest {
				views = api.SortEntriesNewestFirst(views)
			}

			if ctx.jsonOutput() {
				if views == nil {
					views = []api.EntryView{}
				}
				return writeJSON(cmd, api.EntryListResponse{Items: views})
			}
			out := cmd.OutOrStdout()
			if len(views) == 0 {
				fmt.Fprintln(out, "No entries")
				return nil
			}
			fmt.Fprintln(out, renderEntries(views))
			return nil
		},
	}
	filters.register(cmd)
	cmd.Flags().BoolVar(&newest, "newest", false, "Sort by date added, newest first")
	return cmd
}

// keepMatching narrows numbered views to the entries selected by f while
// keeping their catalog-wide numbers, so remove accepts what list shows.
func keepMatching(c *catalog.Catalog, f catalog.Filter, views []api.EntryView) ([]api.EntryView, error) {
	files, err := c.GetFiles(f)
	if err != nil {
		return nil, err
	}
	selected := make(map[string]struct{}, len(files))
	for _, path := range files {
		selected[path] = struct{}{}
	}
	var out []api.EntryView
	for _, v := range views {
		if _, ok := selected[v.Filename]; ok {
			out = append(out, v)
		}
	}
	return out, nil
}

func renderEntries(views []api.EntryView) string {
	rows := make([][]string, 0, len(views))
	for _, v := range views {
		file := v.Filename
		if !v.Exists {
			file += " (missing)"
		}
		rows = append(rows, []string{strconv.Itoa(v.Number), v.Label, v.Key, file, v.AddedAt})
	}
	return renderTable(
		[]string{"#", "Label", "Parameters", "File", "Added"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft},
	)
}

func newGetCommand(ctx *commandContext) *cobra.Command {
	var scan bool

	cmd := &cobra.Command{
		Use:   "get LABEL [name=value...]",
		Short: "Print the file cataloged for a label and parameters",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			label, params, err := labelAndParams(args)
			if err != nil {
				return err
			}
			c, err := ctx.openCatalog(cmd, catalog.LoadRequired)
			if err != nil {
				return err
			}
			lookup := c.GetFilename
			if scan {
				lookup = c.FilenameFromPairs
			}
			path, err := lookup(label, params)
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				e, err := c.Entry(path)
				if err != nil {
					return err
				}
				return writeJSON(cmd, api.FromEntry(0, e))
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&scan, "scan", false, "Scan the ordered pair list instead of the key index")
	return cmd
}

func newNewCommand(ctx *commandContext) *cobra.Command {
	var ext string
	var nested string

	cmd := &cobra.Command{
		Use:   "new LABEL [name=value...]",
		Short: "Mint and register a new filename",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			label, params, err := labelAndParams(args)
			if err != nil {
				return err
			}
			c, err := ctx.openCatalog(cmd, catalog.LoadIfExists)
			if err != nil {
				return err
			}
			path, ok, err := c.NewFilename(commandContextOf(cmd), label, params, ext, nested)
			if err != nil {
				return err
			}
			return reportMinted(cmd, ctx, c, path, ok)
		},
	}
	cmd.Flags().StringVarP(&ext, "ext", "e", "", "File extension")
	cmd.Flags().StringVar(&nested, "nested", "", "Sub-directory of the catalog directory")
	return cmd
}

func newAddCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "add PATH LABEL [name=value...]",
		Short: "Register an existing file",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			label, params, err := labelAndParams(args[1:])
			if err != nil {
				return err
			}
			c, err := ctx.openCatalog(cmd, catalog.LoadIfExists)
			if err != nil {
				return err
			}
			added, err := c.AddFile(commandContextOf(cmd), args[0], label, params)
			if err != nil {
				return err
			}
			if !added {
				fmt.Fprintln(cmd.ErrOrStderr(), "Not added (already cataloged or skipped)")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s\n", args[0])
			return nil
		},
	}
}

func newImportCommand(ctx *commandContext) *cobra.Command {
	var nested string

	cmd := &cobra.Command{
		Use:   "import SOURCE LABEL [name=value...]",
		Short: "Copy a file into the catalog under a fresh name",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			label, params, err := labelAndParams(args[1:])
			if err != nil {
				return err
			}
			c, err := ctx.openCatalog(cmd, catalog.LoadIfExists)
			if err != nil {
				return err
			}
			path, ok, err := c.ImportFile(commandContextOf(cmd), args[0], label, params, nested)
			if err != nil {
				return err
			}
			return reportMinted(cmd, ctx, c, path, ok)
		},
	}
	cmd.Flags().StringVar(&nested, "nested", "", "Sub-directory of the catalog directory")
	return cmd
}

func reportMinted(cmd *cobra.Command, ctx *commandContext, c *catalog.Catalog, path string, ok bool) error {
	if !ok {
		fmt.Fprintln(cmd.ErrOrStderr(), "Skipped: an entry with these parameters already exists")
		return nil
	}
	if ctx.jsonOutput() {
		e, err := c.Entry(path)
		if err != nil {
			return err
		}
		return writeJSON(cmd, api.FromEntry(c.Len(), e))
	}
	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}

func newRemoveCommand(ctx *commandContext) *cobra.Command {
	var file string
	var label string
	var keep bool

	cmd := &cobra.Command{
		Use:   "remove [NUMBER...]",
		Short: "Remove entries by list number, by file or by label and parameters",
		Long: "Remove entries by the numbers shown by list, by --file PATH, or by\n" +
			"--label LABEL followed by name=value arguments.",
		RunE: func(cmd *cobra.Command, args []string) error {
			selectors := 0
			if file != "" {
				selectors++
			}
			if label != "" {
				selectors++
			}
			if selectors > 1 || (selectors == 0 && len(args) == 0) {
				return errors.New("give entry numbers, --file, or --label with name=value arguments")
			}

			c, err := ctx.openCatalog(cmd, catalog.LoadRequired)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			runCtx := commandContextOf(cmd)

			switch {
			case file != "":
				if len(args) > 0 {
					return errors.New("--file does not take positional arguments")
				}
				if err := c.RemoveFile(runCtx, catalog.RemoveRequest{Filename: file, KeepFile: keep}); err != nil {
					return err
				}
				fmt.Fprintf(out, "Removed %s\n", file)
				return nil
			case label != "":
				params, err := api.ParseAssignments(args)
				if err != nil {
					return err
				}
				if err := c.RemoveFile(runCtx, catalog.RemoveRequest{Label: label, Params: params, KeepFile: keep}); err != nil {
					return err
				}
				fmt.Fprintf(out, "Removed %s entry\n", label)
				return nil
			}

			numbers := make([]int, 0, len(args))
			for _, arg := range args {
				n, err := strconv.Atoi(arg)
				if err != nil {
					return fmt.Errorf("invalid entry number %q", arg)
				}
				numbers = append(numbers, n)
			}
			result, err := api.RemoveEntriesByNumber(runCtx, c, numbers, keep)
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, result)
			}
			for _, item := range result.Items {
				switch item.Outcome {
				case api.RemoveEntryRemoved:
					fmt.Fprintf(out, "Entry %d removed (%s)\n", item.Number, item.Filename)
				default:
					fmt.Fprintf(out, "Entry %d not found\n", item.Number)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "Remove the entry for this file")
	cmd.Flags().StringVar(&label, "label", "", "Remove the entry for this label and the given name=value parameters")
	cmd.Flags().BoolVar(&keep, "keep-file", false, "Leave the file on disk")
	return cmd
}

func newPurgeCommand(ctx *commandContext) *cobra.Command {
	var filters filterFlags
	var deleteFiles bool
	var all bool

	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Remove every entry matching a filter",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := filters.filter()
			if err != nil {
				return err
			}
			if f.IsZero() && !all {
				return errors.New("purge without --label or --where removes everything; pass --all to confirm")
			}
			c, err := ctx.openCatalog(cmd, catalog.LoadRequired)
			if err != nil {
				return err
			}
			removed, err := c.Purge(commandContextOf(cmd), f, deleteFiles)
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, map[string]int{"removedCount": removed})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Purged %d entries\n", removed)
			return nil
		},
	}
	filters.register(cmd)
	cmd.Flags().BoolVar(&deleteFiles, "delete-files", false, "Also delete the files on disk")
	cmd.Flags().BoolVar(&all, "all", false, "Allow purging without a filter")
	return cmd
}

func newClosestCommand(ctx *commandContext) *cobra.Command {
	var filters filterFlags

	cmd := &cobra.Command{
		Use:   "closest [name=value...]",
		Short: "Find the entries sharing the most parameter values with a query",
		RunE: func(cmd *cobra.Command, args []string) error {
			query, err := api.ParseAssignments(args)
			if err != nil {
				return err
			}
			f, err := filters.filter()
			if err != nil {
				return err
			}
			c, err := ctx.openCatalog(cmd, catalog.LoadRequired)
			if err != nil {
				return err
			}
			res, err := c.ClosestParams(query, f)
			if err != nil {
				return err
			}
			view := api.FromClosest(res)
			if ctx.jsonOutput() {
				return writeJSON(cmd, view)
			}
			out := cmd.OutOrStdout()
			switch {
			case len(view.Matches) == 0:
				fmt.Fprintln(out, "No entries")
				return nil
			case view.Perfect:
				fmt.Fprintln(out, "Perfect match")
			default:
				fmt.Fprintf(out, "Best agreement: %d of %d parameters\n", view.Agreement, len(query))
			}
			fmt.Fprintln(out, renderEntries(view.Matches))
			return nil
		},
	}
	filters.register(cmd)
	return cmd
}
