// Package preflight provides readiness checks for the filesystem paths and
// catalog documents that librarian depends on.
//
// These checks back the CLI "librarian doctor" command. RunAll checks the
// configured directories and then every catalog discovered under the
// catalog root. Individual checks (CheckDirectoryAccess, CheckCatalog) are
// exported for commands that only need one of them.
package preflight
