// Package api sits between the CLI and the catalog. It opens catalogs with
// the policies from the user configuration and translates catalog state
// into transport-friendly views that commands render as tables or JSON.
//
// # Key Types
//
// EntryView: one cataloged file with its list number, key and parameters.
//
// CatalogInfo: catalog metadata, declared parameters and entry counts.
//
// ClosestView: the result of a closest-parameters query.
//
// # Workflows
//
// OpenCatalog: config.Config -> catalog.Options, including the overwrite
// resolver (interactive prompt or fixed policy) and recognition actions.
//
// ParseAssignments / ParseFilter: name=value command-line arguments to
// parameter maps and filters.
//
// RemoveEntriesByNumber: removal by list position with per-number outcomes.
//
// # Design Notes
//
// Views use camelCase JSON tags. Timestamps use RFC3339. Parameter values are
// emitted in their natural JSON type so that a list round-trips as an array.
package api
