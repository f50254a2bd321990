// Package main hosts the librarian CLI entrypoint and command graph.
//
// The Cobra-based command tree opens a named catalog under the configured
// catalog root and exposes its operations: minting and registering files,
// lookups, removal, parameter migrations, consistency checks and a live
// watch. Configuration resolution and logging setup are centralized in the
// command context so subcommands only deal with arguments and rendering.
//
// Keep this package lean: catalog behaviour lives in internal/catalog and
// CLI-facing translation in internal/api.
package main
