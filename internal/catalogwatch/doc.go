// Package catalogwatch reports when a catalog document changes on disk.
//
// Saves replace the document by renaming a temp file over it, so the
// watcher follows the containing directory and filters on the document
// name. Bursts of events are debounced into a single Change once the file
// has been quiet for the debounce interval.
package catalogwatch
