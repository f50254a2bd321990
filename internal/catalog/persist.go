package catalog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"librarian/internal/fileutil"
	"librarian/internal/logging"
)

// Save persists the catalog.
func (c *Catalog) Save(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := c.snapshot()
	return c.commit(ctx, snap)
}

// save stamps the modification time and writes the document atomically
// under the exclusive lock. Callers hold c.mu.
func (c *Catalog) save(ctx context.Context) error {
	c.modified = c.now()
	if c.created.IsZero() {
		c.created = c.modified
	}

	var body bytes.Buffer
	body.WriteString(c.header())
	enc := yaml.NewEncoder(&body)
	enc.SetIndent(2)
	if err := enc.Encode(c.encodeDocument()); err != nil {
		return &PersistenceError{Op: "encode", Path: c.path, Attempts: 1, Err: err}
	}
	if err := enc.Close(); err != nil {
		return &PersistenceError{Op: "encode", Path: c.path, Attempts: 1, Err: err}
	}

	release, err := c.acquire(ctx, true)
	if err != nil {
		return &PersistenceError{Op: "save", Path: c.path, Attempts: 1, Err: err}
	}
	defer release()

	if err := fileutil.WriteFileAtomic(c.path, body.Bytes(), 0o644); err != nil {
		return &PersistenceError{Op: "save", Path: c.path, Attempts: 1, Err: err}
	}
	c.logger.Debug("saved catalog", logging.Int("entries", len(c.entries)))
	return nil
}

// Load replaces the in-memory state with the persisted document. Parse
// failures and incomplete documents are retried after LoadDelay, up to
// LoadAttempts times, to ride out a concurrent writer that does not take the
// lock. Other failures are returned at once.
func (c *Catalog) Load(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var lastErr error
	for attempt := 1; attempt <= c.loadAttempts; attempt++ {
		st, retry, err := c.readOnce(ctx)
		if err == nil {
			if err := c.apply(st); err != nil {
				return &PersistenceError{Op: "load", Path: c.path, Attempts: attempt, Err: err}
			}
			c.logger.Debug("loaded catalog",
				logging.Int("entries", len(c.entries)),
				logging.Int("attempt", attempt),
			)
			return nil
		}
		if !retry {
			return &PersistenceError{Op: "load", Path: c.path, Attempts: attempt, Err: err}
		}
		lastErr = err
		if attempt == c.loadAttempts {
			break
		}
		logging.WarnWithContext(c.logger, "catalog document unreadable, retrying", "catalog_load_retry",
			logging.Int("attempt", attempt),
			logging.Duration("delay", c.loadDelay),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "another process may be writing the catalog"),
			logging.String(logging.FieldImpact, "load delayed"),
		)
		if err := sleepCtx(ctx, c.loadDelay); err != nil {
			return &PersistenceError{Op: "load", Path: c.path, Attempts: attempt, Err: err}
		}
	}
	return &PersistenceError{Op: "load", Path: c.path, Attempts: c.loadAttempts, Err: lastErr}
}

// readOnce reads and decodes the document once. retry reports whether the
// failure looks transient.
func (c *Catalog) readOnce(ctx context.Context) (*state, bool, error) {
	release, err := c.acquire(ctx, false)
	if err != nil {
		return nil, false, err
	}
	data, err := os.ReadFile(c.path)
	release()
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, err
		}
		return nil, false, fmt.Errorf("read catalog: %w", err)
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, true, fmt.Errorf("parse catalog: %w", err)
	}
	st, err := decodeDocument(&root)
	if err != nil {
		return nil, errors.Is(err, errIncomplete), err
	}
	return st, false, nil
}

// apply installs decoded state. A document whose entries collide on a key
// or share a file is rejected and the previous state kept.
func (c *Catalog) apply(st *state) error {
	if st.name != "" && st.name != c.name {
		logging.WarnWithContext(c.logger, "catalog document names a different catalog", "catalog_name_mismatch",
			logging.String("document_name", st.name),
			logging.String(logging.FieldImpact, "the file name wins"),
		)
	}
	prev := c.snapshot()
	c.description = st.description
	c.schema = st.schema
	c.labels = dedupe(st.labels)
	c.extensions = normalizeExtensions(st.extensions)
	c.entries = st.entries
	c.created = st.created
	c.modified = st.modified
	c.rebuildIndex()
	if err := c.verify(); err != nil {
		c.restore(prev)
		logging.ErrorWithContext(c.logger, "catalog document is inconsistent", "catalog_inconsistent",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "repair the document or restore it from a backup"),
		)
		return err
	}
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
