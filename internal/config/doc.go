// Package config loads, normalizes, and validates librarian configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours the LIBRARIAN_CATALOG_ROOT
// environment override. The Catalog section carries the policies every
// catalog opened by the CLI inherits: the collision policy and prompt
// timeout, how unrecognized labels and extensions are reported, and the
// load retry and lock timings used to ride out concurrent writers.
//
// Always obtain settings through this package so downstream code receives
// expanded paths, lower-cased enums, and clear validation errors.
package config
