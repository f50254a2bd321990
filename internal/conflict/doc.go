// Package conflict decides what happens when a new catalog entry would
// replace a file that already exists on disk.
//
// Resolution is injected through the Resolver interface. Fixed applies a
// configured policy; Interactive asks on a terminal with a timeout and a
// bounded number of attempts, falling back to its default when input is not
// interactive. Evaluate drives the check from Unchecked through FoundExists
// to Resolved and performs the unlink for overwrites.
package conflict
