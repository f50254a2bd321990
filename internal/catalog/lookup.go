package catalog

import (
	"fmt"

	"librarian/internal/schema"
)

// GetFilename returns the file cataloged for (label, params) through the
// key index.
func (c *Catalog) GetFilename(label string, params map[string]any) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cast, err := c.schema.Cast(params)
	if err != nil {
		return "", err
	}
	key := keyOf(label, cast)
	pos, ok := c.index[key]
	if !ok {
		return "", &NotFoundError{Label: label, Key: key.key.String()}
	}
	return c.entries[pos].Filename, nil
}

// FilenameFromPairs resolves (label, params) by scanning the ordered
// (label, parameters) view instead of the index. It must always agree with
// GetFilename.
func (c *Catalog) FilenameFromPairs(label string, params map[string]any) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cast, err := c.schema.Cast(params)
	if err != nil {
		return "", err
	}
	for _, e := range c.entries {
		if e.Label == label && e.Params.Equal(cast) {
			return e.Filename, nil
		}
	}
	return "", &NotFoundError{Label: label, Key: keyOf(label, cast).key.String()}
}

// HasFile reports whether (label, params) is cataloged. Schema errors are
// returned rather than reported as absence.
func (c *Catalog) HasFile(label string, params map[string]any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cast, err := c.schema.Cast(params)
	if err != nil {
		return false, err
	}
	_, ok := c.index[keyOf(label, cast)]
	return ok, nil
}

// Entry returns the entry cataloged under path.
func (c *Catalog) Entry(path string) (Entry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	pos, ok := c.positionOfFile(path)
	if !ok {
		return Entry{}, &NotFoundError{Filename: path}
	}
	return c.entries[pos].clone(), nil
}

// GetFiles returns the files of matching entries in insertion order.
func (c *Catalog) GetFiles(f Filter) ([]string, error) {
	entries, err := c.Entries(f)
	if err != nil {
		return nil, err
	}
	files := make([]string, len(entries))
	for i, e := range entries {
		files[i] = e.Filename
	}
	return files, nil
}

// Entries returns copies of matching entries in insertion order.
func (c *Catalog) Entries(f Filter) ([]Entry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	m, err := f.compile(c.schema)
	if err != nil {
		return nil, err
	}
	out := make([]Entry, 0, len(c.entries))
	for _, e := range c.entries {
		if m.match(e) {
			out = append(out, e.clone())
		}
	}
	return out, nil
}

// DataLabelsAndParameters returns the ordered (label, parameters) view,
// index-aligned with GetFiles(Filter{}).
func (c *Catalog) DataLabelsAndParameters() []LabelParams {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]LabelParams, len(c.entries))
	for i, e := range c.entries {
		out[i] = LabelParams{Label: e.Label, Params: e.Params.Clone()}
	}
	return out
}

// Labels returns the distinct labels in use, in first-seen order.
func (c *Catalog) Labels() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	var labels []string
	seen := make(map[string]struct{})
	for _, e := range c.entries {
		if _, ok := seen[e.Label]; !ok {
			seen[e.Label] = struct{}{}
			labels = append(labels, e.Label)
		}
	}
	return labels
}

// Verify re-derives the by-label view, the file list and the pair list from
// the entry table and checks that they line up with the index.
func (c *Catalog) Verify() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.verify()
}

func (c *Catalog) verify() error {
	if len(c.index) != len(c.entries) {
		return &ConsistencyError{Detail: fmt.Sprintf("index has %d keys for %d entries", len(c.index), len(c.entries))}
	}
	byLabel := c.byLabel()
	files := make(map[string]int, len(c.entries))
	for i, e := range c.entries {
		key := keyOf(e.Label, e.Params)
		if pos, ok := c.index[key]; !ok || pos != i {
			return &ConsistencyError{Detail: fmt.Sprintf("entry %d (%s [%s]) not reachable through the index", i, e.Label, key.key)}
		}
		if got := byLabel[e.Label][key.key.String()].Filename; got != e.Filename {
			return &ConsistencyError{Detail: fmt.Sprintf("entry %d: by-label view has %q, file list has %q", i, got, e.Filename)}
		}
		if prev, dup := files[e.Filename]; dup {
			return &ConsistencyError{Detail: fmt.Sprintf("file %s cataloged at positions %d and %d", e.Filename, prev, i)}
		}
		files[e.Filename] = i
	}
	return nil
}

// byLabel derives the label -> key -> entry view used by the persisted
// document.
func (c *Catalog) byLabel() map[string]map[string]Entry {
	out := make(map[string]map[string]Entry)
	for _, e := range c.entries {
		m, ok := out[e.Label]
		if !ok {
			m = make(map[string]Entry)
			out[e.Label] = m
		}
		m[e.Key().String()] = e
	}
	return out
}

func castQuery(s *schema.Schema, query map[string]any) (schema.Params, error) {
	out := make(schema.Params, len(query))
	for name, raw := range query {
		v, err := s.CastValue(name, raw)
		if err != nil {
			return nil, err
		}
		out[name] = v
	}
	return out, nil
}
