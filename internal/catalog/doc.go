// Package catalog implements the parameterized file catalog: an index from a
// data label plus a typed parameter set to a generated file path.
//
// Responsibilities:
//   - Mint unique filenames (NewFilename, WriteFile, ImportFile) and catalog
//     existing files (AddFile), resolving key collisions through an injected
//     conflict.Resolver.
//   - Answer exact lookups through a (label, key) index and approximate ones
//     through ClosestParams.
//   - Persist the catalog as a commented YAML document after every mutation,
//     writing atomically under an advisory lock and retrying reads that
//     catch a concurrent writer midway.
//   - Migrate entries when parameters are added, renamed, retyped or removed.
//
// The YAML document keeps three views of the entries (per-label maps, the
// ordered file list and the ordered (label, parameters) list). In memory
// there is a single ordered table; the views are derived from it on save and
// cross-checked on load and by Verify.
//
// Locking covers reads against torn writes only. Two processes adding
// entries at the same time can still lose one side's additions.
package catalog
