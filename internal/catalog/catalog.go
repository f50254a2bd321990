package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"librarian/internal/conflict"
	"librarian/internal/fileutil"
	"librarian/internal/filename"
	"librarian/internal/logging"
	"librarian/internal/schema"
)

// FileExtension is the suffix of persisted catalog documents.
const FileExtension = ".yaml"

// Catalog indexes generated files by label and parameter set.
//
// Entries live in one ordered table; index maps (label, key) to a table
// position and is rebuilt from the table whenever positions shift. Every
// mutation persists the whole catalog before returning and restores the
// previous in-memory state if that save fails.
type Catalog struct {
	mu sync.Mutex

	name        string
	dir         string
	path        string
	description string

	schema     *schema.Schema
	labels     []string
	extensions []string

	entries []Entry
	index   map[indexKey]int

	created  time.Time
	modified time.Time

	resolver     conflict.Resolver
	labelAction  filename.Action
	extAction    filename.Action
	loadAttempts int
	loadDelay    time.Duration
	lockTimeout  time.Duration
	clock        func() time.Time
	logger       *slog.Logger
}

// Open loads or initializes the catalog <Dir>/<Name>.yaml according to
// opts.LoadMode. A fresh catalog is saved immediately.
func Open(ctx context.Context, opts Options) (*Catalog, error) {
	opts = opts.withDefaults()
	name := strings.TrimSpace(opts.Name)
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return nil, fmt.Errorf("%w: catalog name %q", ErrInvalidRequest, opts.Name)
	}
	if strings.TrimSpace(opts.Dir) == "" {
		return nil, fmt.Errorf("%w: catalog directory is required", ErrInvalidRequest)
	}
	dir, err := filepath.Abs(opts.Dir)
	if err != nil {
		return nil, fmt.Errorf("resolve catalog directory: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create catalog directory: %w", err)
	}

	sch := opts.Schema
	if sch == nil {
		sch = schema.New(true)
	}

	c := &Catalog{
		name:         name,
		dir:          dir,
		path:         filepath.Join(dir, name+FileExtension),
		description:  opts.Description,
		schema:       sch.Clone(),
		labels:       dedupe(opts.RecognizedLabels),
		extensions:   normalizeExtensions(opts.RecognizedExtensions),
		index:        make(map[indexKey]int),
		resolver:     opts.Resolver,
		labelAction:  opts.LabelAction,
		extAction:    opts.ExtensionAction,
		loadAttempts: opts.LoadAttempts,
		loadDelay:    max(opts.LoadDelay, 0),
		lockTimeout:  opts.LockTimeout,
		clock:        opts.Clock,
	}
	c.logger = logging.NewComponentLogger(opts.Logger, "catalog").With(logging.String(logging.FieldCatalog, name))

	for _, label := range c.labels {
		if err := validateLabel(label); err != nil {
			return nil, err
		}
	}

	load := false
	switch opts.LoadMode {
	case LoadRequired:
		load = true
	case LoadIfExists:
		load = fileutil.Exists(c.path)
	}

	if load {
		if err := c.Load(ctx); err != nil {
			return nil, err
		}
		return c, nil
	}

	now := c.now()
	c.created, c.modified = now, now
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.save(ctx); err != nil {
		return nil, err
	}
	c.logger.Info("created catalog", logging.String("path", c.path))
	return c, nil
}

// Exists reports whether a catalog document is present for name in dir.
func Exists(dir, name string) bool {
	return fileutil.Exists(filepath.Join(dir, name+FileExtension))
}

func (c *Catalog) Name() string { return c.name }

// Dir returns the absolute directory holding the catalog and its files.
func (c *Catalog) Dir() string { return c.dir }

// Path returns the location of the persisted document.
func (c *Catalog) Path() string { return c.path }

func (c *Catalog) Description() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.description
}

// Schema returns a copy of the parameter schema.
func (c *Catalog) Schema() *schema.Schema {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.schema.Clone()
}

func (c *Catalog) RecognizedLabels() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.labels)
}

func (c *Catalog) RecognizedExtensions() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.extensions)
}

// Created and Modified return catalog timestamps at second precision.
func (c *Catalog) Created() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.created
}

func (c *Catalog) Modified() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.modified
}

// Len returns the number of entries.
func (c *Catalog) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// SetResolver replaces the collision policy.
func (c *Catalog) SetResolver(r conflict.Resolver) {
	if r == nil {
		r = conflict.Fixed(conflict.Skip)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resolver = r
}

// AddRecognized extends the label and extension vocabularies and persists
// the change.
func (c *Catalog) AddRecognized(ctx context.Context, labels, extensions []string) error {
	for _, label := range labels {
		if err := validateLabel(label); err != nil {
			return err
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := c.snapshot()
	c.labels = dedupe(append(c.labels, labels...))
	c.extensions = normalizeExtensions(append(c.extensions, extensions...))
	return c.commit(ctx, snap)
}

func (c *Catalog) now() time.Time {
	return c.clock().Truncate(time.Second)
}

type snapshot struct {
	entries     []Entry
	schema      *schema.Schema
	labels      []string
	extensions  []string
	description string
	created     time.Time
	modified    time.Time
}

func (c *Catalog) snapshot() snapshot {
	return snapshot{
		entries:     slices.Clone(c.entries),
		schema:      c.schema.Clone(),
		labels:      slices.Clone(c.labels),
		extensions:  slices.Clone(c.extensions),
		description: c.description,
		created:     c.created,
		modified:    c.modified,
	}
}

func (c *Catalog) restore(s snapshot) {
	c.entries = s.entries
	c.schema = s.schema
	c.labels = s.labels
	c.extensions = s.extensions
	c.description = s.description
	c.created = s.created
	c.modified = s.modified
	c.rebuildIndex()
}

// commit persists the current state, rolling back to snap on failure.
func (c *Catalog) commit(ctx context.Context, snap snapshot) error {
	if err := c.save(ctx); err != nil {
		c.restore(snap)
		return err
	}
	return nil
}

func (c *Catalog) rebuildIndex() {
	c.index = make(map[indexKey]int, len(c.entries))
	for i, e := range c.entries {
		c.index[keyOf(e.Label, e.Params)] = i
	}
}

func (c *Catalog) appendEntry(e Entry) {
	c.entries = append(c.entries, e)
	c.index[keyOf(e.Label, e.Params)] = len(c.entries) - 1
}

func (c *Catalog) removeAt(positions ...int) {
	if len(positions) == 0 {
		return
	}
	drop := make(map[int]struct{}, len(positions))
	for _, p := range positions {
		drop[p] = struct{}{}
	}
	kept := c.entries[:0:0]
	for i, e := range c.entries {
		if _, gone := drop[i]; !gone {
			kept = append(kept, e)
		}
	}
	c.entries = kept
	c.rebuildIndex()
}

func (c *Catalog) positionOfFile(path string) (int, bool) {
	clean := filepath.Clean(path)
	for i, e := range c.entries {
		if e.Filename == clean {
			return i, true
		}
	}
	return -1, false
}

// unlink removes a file that is no longer cataloged. Failure is only logged.
func (c *Catalog) unlink(path string) {
	if err := fileutil.RemoveIfExists(path); err != nil {
		logging.WarnWithContext(c.logger, "failed to delete cataloged file", "file_unlink_failed",
			logging.String(logging.FieldFilename, path),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "remove the file manually"),
			logging.String(logging.FieldImpact, "entry removed from the catalog but the file remains on disk"),
		)
	}
}

func validateLabel(label string) error {
	if strings.TrimSpace(label) == "" {
		return fmt.Errorf("%w: empty label", ErrInvalidLabel)
	}
	if isReservedKey(label) {
		return fmt.Errorf("%w: %q is a reserved catalog key", ErrInvalidLabel, label)
	}
	return nil
}

func dedupe(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" && !slices.Contains(out, v) {
			out = append(out, v)
		}
	}
	return out
}

func normalizeExtensions(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, filename.NormalizeExtension(v))
	}
	return dedupe(out)
}

func isCancelled(err error) bool {
	return errors.Is(err, conflict.ErrCancelled)
}
