package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/gofrs/flock"
)

const lockRetryDelay = 50 * time.Millisecond

// LockPath returns the advisory lock file guarding a catalog document.
func LockPath(documentPath string) string { return documentPath + ".lock" }

// acquire takes the advisory lock beside the document, shared for reads and
// exclusive for writes. The returned func releases it.
func (c *Catalog) acquire(ctx context.Context, exclusive bool) (func(), error) {
	lock := flock.New(LockPath(c.path))
	ctx, cancel := context.WithTimeout(ctx, c.lockTimeout)
	defer cancel()

	var (
		locked bool
		err    error
	)
	if exclusive {
		locked, err = lock.TryLockContext(ctx, lockRetryDelay)
	} else {
		locked, err = lock.TryRLockContext(ctx, lockRetryDelay)
	}
	if err != nil || !locked {
		if err == nil {
			err = fmt.Errorf("lock %s not acquired", lock.Path())
		}
		return nil, fmt.Errorf("acquire catalog lock within %s: %w", c.lockTimeout, err)
	}
	return func() { _ = lock.Unlock() }, nil
}
