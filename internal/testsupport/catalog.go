package testsupport

import (
	"context"
	"testing"

	"librarian/internal/catalog"
	"librarian/internal/conflict"
	"librarian/internal/logging"
	"librarian/internal/schema"
)

// CatalogOption customizes MustOpenCatalog.
type CatalogOption func(*catalog.Options)

// MustOpenCatalog opens a catalog named "test" in a fresh temp directory.
// Collisions are skipped, load retries are immediate and logs discarded
// unless options say otherwise.
func MustOpenCatalog(t testing.TB, opts ...CatalogOption) *catalog.Catalog {
	t.Helper()

	o := catalog.Options{
		Name:         "test",
		Dir:          t.TempDir(),
		Resolver:     conflict.Fixed(conflict.Skip),
		LoadAttempts: 2,
		LoadDelay:    -1,
		Logger:       logging.NewNop(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	c, err := catalog.Open(context.Background(), o)
	if err != nil {
		t.Fatalf("catalog.Open: %v", err)
	}
	return c
}

// WithDir places the catalog in dir.
func WithDir(dir string) CatalogOption {
	return func(o *catalog.Options) { o.Dir = dir }
}

// WithSchema seeds the catalog schema.
func WithSchema(s *schema.Schema) CatalogOption {
	return func(o *catalog.Options) { o.Schema = s }
}

// WithResolver sets the collision resolver.
func WithResolver(r conflict.Resolver) CatalogOption {
	return func(o *catalog.Options) { o.Resolver = r }
}

// WithCatalogOptions applies an arbitrary mutation.
func WithCatalogOptions(fn func(*catalog.Options)) CatalogOption {
	return func(o *catalog.Options) { fn(o) }
}

// IntSchema declares the named int parameters without defaults.
func IntSchema(t testing.TB, names ...string) *schema.Schema {
	t.Helper()

	s := schema.New(true)
	for _, name := range names {
		if err := s.Declare(name, schema.KindInt, nil); err != nil {
			t.Fatalf("declare %s: %v", name, err)
		}
	}
	return s
}

// MintFile creates a new entry and writes content to its path.
func MintFile(t testing.TB, c *catalog.Catalog, label string, params map[string]any, content string) string {
	t.Helper()

	path, ok, err := c.NewFilename(context.Background(), label, params, "txt", "")
	if err != nil {
		t.Fatalf("NewFilename(%s, %v): %v", label, params, err)
	}
	if !ok {
		t.Fatalf("NewFilename(%s, %v) skipped", label, params)
	}
	WriteFile(t, path, content)
	return path
}
