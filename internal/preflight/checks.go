package preflight

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"librarian/internal/catalog"
	"librarian/internal/conflict"
	"librarian/internal/fileutil"
	"librarian/internal/logging"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	if path == "" {
		return Result{Name: name, Detail: "not configured"}
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckCatalog loads the catalog document once, cross-checks its views and
// counts entries whose file is gone. Nothing is written.
func CheckCatalog(ctx context.Context, dir, name string, lockTimeout time.Duration) Result {
	label := "Catalog " + name

	c, err := catalog.Open(ctx, catalog.Options{
		Name:         name,
		Dir:          dir,
		LoadMode:     catalog.LoadRequired,
		Resolver:     conflict.Fixed(conflict.Skip),
		LoadAttempts: 1,
		LoadDelay:    -1,
		LockTimeout:  lockTimeout,
		Logger:       logging.NewNop(),
	})
	if err != nil {
		return Result{Name: label, Detail: summarizeCatalogError(err)}
	}
	if err := c.Verify(); err != nil {
		return Result{Name: label, Detail: summarizeCatalogError(err)}
	}

	files, err := c.GetFiles(catalog.Filter{})
	if err != nil {
		return Result{Name: label, Detail: err.Error()}
	}
	missing := 0
	for _, path := range files {
		if !fileutil.Exists(path) {
			missing++
		}
	}
	if missing > 0 {
		return Result{Name: label, Detail: fmt.Sprintf("%d of %d entries point at missing files", missing, len(files))}
	}
	return Result{Name: label, Passed: true, Detail: fmt.Sprintf("%d entries, document consistent", len(files))}
}

// summarizeCatalogError produces a human-readable summary for a failed catalog check.
func summarizeCatalogError(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timed out waiting for the catalog lock"
	case errors.Is(err, catalog.ErrConsistency):
		return fmt.Sprintf("document views disagree (%v)", err)
	case errors.Is(err, catalog.ErrPersistence):
		return fmt.Sprintf("document unreadable (%v)", err)
	}
	return err.Error()
}
