package catalogwatch

import (
	"context"

	"librarian/internal/catalog"
)

// Follow reloads c whenever its document changes and reports each reload to
// fn. A removed document is reported without reloading. Follow blocks until
// ctx is done.
func Follow(ctx context.Context, c *catalog.Catalog, opts Options, fn func(Change, error)) error {
	w, err := New(c.Path(), opts)
	if err != nil {
		return err
	}
	if err := w.Start(ctx); err != nil {
		return err
	}
	defer w.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case change, ok := <-w.Changes():
			if !ok {
				return nil
			}
			if change.Removed {
				fn(change, nil)
				continue
			}
			fn(change, c.Load(ctx))
		}
	}
}
