package preflight

import (
	"context"
	"os"
	"path/filepath"
	"sort"

	"librarian/internal/catalog"
	"librarian/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes the directory checks and a document check for every
// catalog found under the catalog root.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	root := CheckDirectoryAccess("Catalog root", cfg.Paths.CatalogRoot)
	results = append(results, root)

	// The log directory is created on first use, so only check it when present.
	if cfg.Paths.LogDir != "" {
		if _, err := os.Stat(cfg.Paths.LogDir); err == nil {
			results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
		}
	}

	if !root.Passed {
		return results
	}
	for _, name := range DiscoverCatalogs(cfg.Paths.CatalogRoot) {
		results = append(results, CheckCatalog(ctx, cfg.CatalogDir(name), name, cfg.LockTimeout()))
	}
	return results
}

// DiscoverCatalogs lists the names of catalogs stored under root, one per
// subdirectory holding <name>/<name>.yaml. Names are sorted.
func DiscoverCatalogs(root string) []string {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil
	}
	var names []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		name := entry.Name()
		if catalog.Exists(filepath.Join(root, name), name) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
