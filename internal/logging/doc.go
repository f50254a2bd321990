// Package logging assembles structured slog loggers and formatting helpers used
// across the librarian packages.
//
// It owns the console and JSON handlers, level parsing, and output routing.
// Catalogs hold a logger handed to them at construction; there is no
// process-wide logger. Component loggers tag each line with the emitting
// package, and the console handler lifts the catalog name into the line
// prefix so interleaved output from several catalogs stays readable.
//
// Warnings should go through WarnWithContext so they always carry an event
// type, a hint, and the impact on the caller.
package logging
