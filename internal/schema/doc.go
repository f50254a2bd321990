// Package schema declares the typed parameters a catalog accepts and casts
// caller-supplied maps into canonical parameter sets.
//
// A Schema is an ordered list of declarations. Each declaration names a Kind
// and optionally a default; parameters without a default are required.
// Strict schemas reject undeclared names, lenient ones pass them through with
// an inferred kind. Values are carried as the tagged Value type so the key
// codec and persistence layer never need reflection.
package schema
