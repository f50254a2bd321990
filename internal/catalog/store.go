package catalog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"librarian/internal/conflict"
	"librarian/internal/fileutil"
	"librarian/internal/filename"
	"librarian/internal/logging"
	"librarian/internal/schema"
)

// NewFilename mints a path for (label, params), catalogs it, and persists
// the catalog. The file itself is not created. When a collision resolves to
// skip the result is ("", false, nil); cancel returns conflict.ErrCancelled.
func (c *Catalog) NewFilename(ctx context.Context, label string, params map[string]any, ext, nested string) (string, bool, error) {
	return c.mint(ctx, label, params, ext, nested, nil)
}

// WriteFile mints a path like NewFilename and calls write with it before the
// entry is committed. If write fails nothing is cataloged and any partial
// file is removed.
func (c *Catalog) WriteFile(ctx context.Context, label string, params map[string]any, ext, nested string, write func(path string) error) (string, bool, error) {
	if write == nil {
		return "", false, fmt.Errorf("%w: write function is required", ErrInvalidRequest)
	}
	return c.mint(ctx, label, params, ext, nested, write)
}

// ImportFile copies src into a freshly minted path under the catalog
// directory, verifying the copy, and catalogs it. The extension of src is
// kept.
func (c *Catalog) ImportFile(ctx context.Context, src, label string, params map[string]any, nested string) (string, bool, error) {
	info, err := os.Stat(src)
	if err != nil {
		return "", false, fmt.Errorf("import source: %w", err)
	}
	if info.IsDir() {
		return "", false, fmt.Errorf("%w: import source %s is a directory", ErrInvalidRequest, src)
	}
	ext := filepath.Ext(src)
	return c.mint(ctx, label, params, ext, nested, func(dst string) error {
		return fileutil.CopyFileVerified(src, dst)
	})
}

func (c *Catalog) mint(ctx context.Context, label string, raw map[string]any, ext, nested string, write func(string) error) (string, bool, error) {
	if err := validateLabel(label); err != nil {
		return "", false, err
	}
	ext = filename.NormalizeExtension(ext)

	c.mu.Lock()
	defer c.mu.Unlock()

	params, err := c.schema.Cast(raw)
	if err != nil {
		return "", false, err
	}
	if _, err := filename.CheckRecognized(label, c.labels, "label", c.labelAction, c.logger); err != nil {
		return "", false, err
	}
	if _, err := filename.CheckRecognized(ext, c.extensions, "extension", c.extAction, c.logger); err != nil {
		return "", false, err
	}

	key := keyOf(label, params)
	pos, exists := c.index[key]
	outcome := conflict.Outcome{State: conflict.Unchecked}
	if exists {
		old := c.entries[pos]
		outcome, err = conflict.Evaluate(ctx, c.resolver, conflict.Conflict{
			Label:    label,
			Key:      key.key.String(),
			Existing: old.Filename,
			AddedAt:  old.CreatedAt,
		}, conflict.Options{Logger: c.logger})
		if err != nil {
			if isCancelled(err) {
				c.logger.Info("new filename cancelled", logging.String(logging.FieldLabel, label), logging.String(logging.FieldKey, key.key.String()))
			}
			return "", false, err
		}
		if !outcome.Proceed() {
			c.logger.Info("kept existing file", logging.String(logging.FieldLabel, label), logging.String(logging.FieldFilename, old.Filename))
			return "", false, nil
		}
	}

	snap := c.snapshot()
	path, err := filename.Generate(label, c.dir, ext, nested)
	if err != nil {
		return "", false, c.dropSuperseded(ctx, outcome, pos, err)
	}
	if write != nil {
		if err := write(path); err != nil {
			_ = fileutil.RemoveIfExists(path)
			return "", false, c.dropSuperseded(ctx, outcome, pos, fmt.Errorf("write %s: %w", path, err))
		}
	}

	if exists {
		c.removeAt(pos)
	}
	c.appendEntry(Entry{Label: label, Params: params, Filename: path, CreatedAt: c.now()})
	if err := c.commit(ctx, snap); err != nil {
		if write != nil {
			_ = fileutil.RemoveIfExists(path)
		}
		return "", false, c.dropSuperseded(ctx, outcome, pos, err)
	}

	c.logger.Debug("cataloged new file",
		logging.String(logging.FieldLabel, label),
		logging.String(logging.FieldKey, key.key.String()),
		logging.String(logging.FieldFilename, path),
	)
	return path, true, nil
}

// dropSuperseded runs when minting fails after an overwrite already
// unlinked the old file. The old entry at pos is removed and the catalog
// saved, so it cannot be left pointing at a deleted file. cause is returned,
// joined with any save error.
func (c *Catalog) dropSuperseded(ctx context.Context, outcome conflict.Outcome, pos int, cause error) error {
	if !outcome.OldRemoved {
		return cause
	}
	c.removeAt(pos)
	if err := c.save(ctx); err != nil {
		return errors.Join(cause, err)
	}
	return cause
}

// AddFile catalogs a file that already exists, for example one produced by
// an external tool. Recognition checks are skipped. Re-adding the same path
// under the same key is a no-op and returns false.
func (c *Catalog) AddFile(ctx context.Context, path, label string, raw map[string]any) (bool, error) {
	if err := validateLabel(label); err != nil {
		return false, err
	}
	if path == "" {
		return false, fmt.Errorf("%w: path is required", ErrInvalidRequest)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return false, fmt.Errorf("resolve path: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	params, err := c.schema.Cast(raw)
	if err != nil {
		return false, err
	}
	key := keyOf(label, params)
	pos, exists := c.index[key]
	if exists && c.entries[pos].Filename == abs {
		return false, nil
	}
	if other, dup := c.positionOfFile(abs); dup {
		return false, fmt.Errorf("%w: %s is already cataloged as %s [%s]",
			ErrInvalidRequest, abs, c.entries[other].Label, c.entries[other].Key())
	}

	if exists {
		old := c.entries[pos]
		outcome, err := conflict.Evaluate(ctx, c.resolver, conflict.Conflict{
			Label:    label,
			Key:      key.key.String(),
			Existing: old.Filename,
			AddedAt:  old.CreatedAt,
		}, conflict.Options{Logger: c.logger})
		if err != nil {
			return false, err
		}
		if !outcome.Proceed() {
			return false, nil
		}
	}

	snap := c.snapshot()
	if exists {
		c.removeAt(pos)
	}
	c.appendEntry(Entry{Label: label, Params: params, Filename: abs, CreatedAt: c.now()})
	if err := c.commit(ctx, snap); err != nil {
		return false, err
	}
	c.logger.Debug("cataloged existing file",
		logging.String(logging.FieldLabel, label),
		logging.String(logging.FieldFilename, abs),
	)
	return true, nil
}

// RemoveRequest selects one entry either by Filename or by Label and Params.
type RemoveRequest struct {
	Filename string
	Label    string
	Params   map[string]any
	// KeepFile leaves the physical file on disk.
	KeepFile bool
}

// RemoveFile drops one entry and, unless KeepFile is set, deletes its file.
// A failed delete is logged; the entry is removed regardless.
func (c *Catalog) RemoveFile(ctx context.Context, req RemoveRequest) error {
	byName := req.Filename != ""
	byKey := req.Label != "" || len(req.Params) > 0
	if byName == byKey {
		return fmt.Errorf("%w: give exactly one of filename or label with parameters", ErrInvalidRequest)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	var pos int
	if byName {
		abs, err := filepath.Abs(req.Filename)
		if err != nil {
			return fmt.Errorf("resolve path: %w", err)
		}
		p, ok := c.positionOfFile(abs)
		if !ok {
			return &NotFoundError{Filename: abs}
		}
		pos = p
	} else {
		params, err := c.schema.Cast(req.Params)
		if err != nil {
			return err
		}
		key := keyOf(req.Label, params)
		p, ok := c.index[key]
		if !ok {
			return &NotFoundError{Label: req.Label, Key: key.key.String()}
		}
		pos = p
	}

	removed := c.entries[pos]
	snap := c.snapshot()
	c.removeAt(pos)
	if err := c.commit(ctx, snap); err != nil {
		return err
	}
	if !req.KeepFile {
		c.unlink(removed.Filename)
	}
	c.logger.Debug("removed entry",
		logging.String(logging.FieldLabel, removed.Label),
		logging.String(logging.FieldFilename, removed.Filename),
	)
	return nil
}

// Purge removes every entry matching f with a single save and returns how
// many were removed. Files are deleted when deleteFiles is set. Purging
// nothing does not touch the persisted document.
func (c *Catalog) Purge(ctx context.Context, f Filter, deleteFiles bool) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	m, err := f.compile(c.schema)
	if err != nil {
		return 0, err
	}
	var (
		positions []int
		files     []string
	)
	for i, e := range c.entries {
		if m.match(e) {
			positions = append(positions, i)
			files = append(files, e.Filename)
		}
	}
	if len(positions) == 0 {
		return 0, nil
	}

	snap := c.snapshot()
	c.removeAt(positions...)
	if err := c.commit(ctx, snap); err != nil {
		return 0, err
	}
	if deleteFiles {
		for _, path := range files {
			c.unlink(path)
		}
	}
	c.logger.Info("purged entries", logging.Int("count", len(positions)))
	return len(positions), nil
}

// ConfigureParameters casts params through the catalog schema, giving
// callers the same typed view the catalog indexes with.
func (c *Catalog) ConfigureParameters(params map[string]any) (schema.Params, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.schema.Cast(params)
}
