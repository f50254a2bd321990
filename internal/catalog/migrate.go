package catalog

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"librarian/internal/logging"
	"librarian/internal/schema"
)

// Transmutation renames, retypes, splits or rewrites one parameter across
// existing entries.
type Transmutation struct {
	// Old is the parameter read from each entry.
	Old string
	// New lists the parameters written. Nil means Old itself (retype or
	// rewrite in place). More than one name fans the value out, in which
	// case Transform must return one value per name.
	New []string
	// Kind of the new declarations. KindUnset keeps the kind of Old.
	Kind schema.Kind
	// Transform maps the old value to the new ones. Nil is identity.
	Transform func(schema.Value) ([]schema.Value, error)
	// Defaults for the new declarations. When absent and Old has a
	// default, the transformed old default is used.
	Defaults map[string]any
	// Filter restricts which entries are rewritten.
	Filter Filter
	// KeepOld retains Old on entries and in the schema.
	KeepOld bool
}

// TransmuteParameter applies t. The schema is changed first; then each
// matching entry holding Old is rewritten. Entries without Old are left
// alone. New keys are checked against the final state of the whole batch,
// so a rewrite may take a key another rewritten entry is giving up. Two
// entries ending on one key is ErrKeyCollision and nothing is changed.
// If a transform fails midway the schema change and the entries already
// rewritten are saved anyway and the error is returned, so rerunning the
// migration on the remainder is possible.
func (c *Catalog) TransmuteParameter(ctx context.Context, t Transmutation) error {
	if t.Old == "" {
		return fmt.Errorf("%w: parameter name is required", ErrInvalidRequest)
	}
	names := t.New
	if len(names) == 0 {
		names = []string{t.Old}
	}
	for _, n := range names {
		if schema.IsReserved(n) {
			return &schema.SchemaError{Kind: schema.ErrReservedName, Param: n}
		}
	}
	transform := t.Transform
	if transform == nil {
		if len(names) != 1 {
			return fmt.Errorf("%w: fan-out to %d parameters needs a transform", ErrInvalidRequest, len(names))
		}
		transform = func(v schema.Value) ([]schema.Value, error) { return []schema.Value{v}, nil }
	}
	retainOld := t.KeepOld || slices.Contains(names, t.Old)

	c.mu.Lock()
	defer c.mu.Unlock()

	m, err := t.Filter.compile(c.schema)
	if err != nil {
		return err
	}
	newSchema, err := c.transmutedSchema(t, names, transform, retainOld)
	if err != nil {
		return err
	}

	snap := c.snapshot()
	c.schema = newSchema

	var rewrites []rewrite
	var migrateErr error
	for i, e := range c.entries {
		if err := ctx.Err(); err != nil {
			migrateErr = err
			break
		}
		if !m.match(e) {
			continue
		}
		if _, ok := e.Params[t.Old]; !ok {
			continue
		}
		params, err := c.transmuteEntry(e, t.Old, names, transform, retainOld)
		if err != nil {
			migrateErr = err
			break
		}
		rewrites = append(rewrites, rewrite{pos: i, params: params})
	}
	if err := c.applyRewrites(rewrites); err != nil {
		c.restore(snap)
		return err
	}
	migrated := len(rewrites)

	if migrateErr == nil {
		if err := c.commit(ctx, snap); err != nil {
			return err
		}
		c.logger.Info("transmuted parameter",
			logging.String("from", t.Old),
			logging.Any("to", names),
			logging.Int("entries", migrated),
		)
		return nil
	}

	// Persist the prefix that did migrate along with the schema change.
	if err := c.save(context.WithoutCancel(ctx)); err != nil {
		c.restore(snap)
		return errors.Join(migrateErr, err)
	}
	logging.WarnWithContext(c.logger, "parameter migration stopped partway", "migration_partial",
		logging.String("from", t.Old),
		logging.Int("migrated", migrated),
		logging.Error(migrateErr),
		logging.String(logging.FieldErrorHint, "fix the cause and rerun the migration"),
		logging.String(logging.FieldImpact, "entries of the same label now have mixed parameter shapes"),
	)
	return migrateErr
}

// transmutedSchema computes the schema after t without touching c.
func (c *Catalog) transmutedSchema(t Transmutation, names []string, transform func(schema.Value) ([]schema.Value, error), retainOld bool) (*schema.Schema, error) {
	out := c.schema.Clone()
	oldParam, oldDeclared := out.Lookup(t.Old)

	kind := t.Kind
	if kind == schema.KindUnset {
		if !oldDeclared {
			return nil, fmt.Errorf("%w: kind is required when %s is not declared", ErrInvalidRequest, t.Old)
		}
		kind = oldParam.Kind
	}

	var derived []schema.Value
	if oldDeclared && oldParam.HasDefault() {
		values, err := transform(*oldParam.Default)
		if err != nil {
			return nil, fmt.Errorf("transform default of %s: %w", t.Old, err)
		}
		if len(values) == len(names) {
			derived = values
		}
	}

	for j, name := range names {
		p := schema.Param{Name: name, Kind: kind}
		if raw, ok := t.Defaults[name]; ok && raw != nil {
			v, err := schema.Coerce(name, kind, raw)
			if err != nil {
				return nil, err
			}
			p.Default = &v
		} else if derived != nil {
			v := derived[j]
			p.Default = &v
		}
		if err := out.Put(p); err != nil {
			return nil, err
		}
	}
	if !retainOld && oldDeclared {
		if err := out.RemoveParameter(t.Old); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (c *Catalog) transmuteEntry(e Entry, old string, names []string, transform func(schema.Value) ([]schema.Value, error), retainOld bool) (schema.Params, error) {
	values, err := transform(e.Params[old])
	if err != nil {
		return nil, fmt.Errorf("transform %s of %s: %w", old, e.Filename, err)
	}
	if len(values) != len(names) {
		return nil, fmt.Errorf("%w: transform returned %d values for %d parameters", ErrInvalidRequest, len(values), len(names))
	}
	params := e.Params.Clone()
	if !retainOld {
		delete(params, old)
	}
	for j, name := range names {
		v, err := c.schema.CastValue(name, values[j])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", e.Filename, err)
		}
		params[name] = v
	}
	return params, nil
}

// rewrite is a replacement parameter set for the entry at pos.
type rewrite struct {
	pos    int
	params schema.Params
}

// applyRewrites replaces entry parameters in one step. Keys are checked
// against the state after every rewrite, so ErrKeyCollision means two
// entries would end up sharing a key. On error nothing is changed.
func (c *Catalog) applyRewrites(rewrites []rewrite) error {
	if len(rewrites) == 0 {
		return nil
	}
	replaced := make(map[int]schema.Params, len(rewrites))
	for _, r := range rewrites {
		replaced[r.pos] = r.params
	}
	seen := make(map[indexKey]int, len(c.entries))
	for i, e := range c.entries {
		params := e.Params
		if p, ok := replaced[i]; ok {
			params = p
		}
		k := keyOf(e.Label, params)
		if other, taken := seen[k]; taken {
			return fmt.Errorf("%w: %s [%s] would be shared by %s and %s", ErrKeyCollision, e.Label, k.key, c.entries[other].Filename, e.Filename)
		}
		seen[k] = i
	}
	for _, r := range rewrites {
		e := c.entries[r.pos]
		e.Params = r.params
		c.entries[r.pos] = e
	}
	c.rebuildIndex()
	return nil
}

// RemoveParameter drops name from matching entries. With an empty filter
// the declaration is removed from the schema too; a filtered removal keeps
// the declaration for the entries it did not touch.
func (c *Catalog) RemoveParameter(ctx context.Context, name string, f Filter) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	m, err := f.compile(c.schema)
	if err != nil {
		return err
	}
	_, declared := c.schema.Lookup(name)
	snap := c.snapshot()
	if f.IsZero() {
		if !declared && c.schema.Strict() {
			return &schema.SchemaError{Kind: schema.ErrNotDeclared, Param: name}
		}
		if declared {
			if err := c.schema.RemoveParameter(name); err != nil {
				return err
			}
		}
	}

	var rewrites []rewrite
	for i, e := range c.entries {
		if !m.match(e) {
			continue
		}
		if _, ok := e.Params[name]; !ok {
			continue
		}
		params := e.Params.Clone()
		delete(params, name)
		rewrites = append(rewrites, rewrite{pos: i, params: params})
	}
	if err := c.applyRewrites(rewrites); err != nil {
		c.restore(snap)
		return err
	}
	removed := len(rewrites)
	if err := c.commit(ctx, snap); err != nil {
		return err
	}
	c.logger.Info("removed parameter", logging.String("parameter", name), logging.Int("entries", removed))
	return nil
}

// ParamSpec declares a parameter for AddParameters.
type ParamSpec struct {
	Name    string
	Kind    schema.Kind
	Default any
}

// AddParameter declares a new parameter and writes its default into every
// existing entry, so entries cataloged before the change stay retrievable
// with or without the new parameter in the query.
func (c *Catalog) AddParameter(ctx context.Context, name string, kind schema.Kind, def any) error {
	return c.AddParameters(ctx, ParamSpec{Name: name, Kind: kind, Default: def})
}

// AddParameters declares several parameters in one save. Every spec needs a
// default.
func (c *Catalog) AddParameters(ctx context.Context, specs ...ParamSpec) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := c.snapshot()
	for _, spec := range specs {
		if err := c.schema.AddParameter(spec.Name, spec.Kind, spec.Default); err != nil {
			c.restore(snap)
			return err
		}
	}
	defaults := c.schema.Defaults()
	var rewrites []rewrite
	for i, e := range c.entries {
		params := e.Params.Clone()
		changed := false
		for _, spec := range specs {
			if _, ok := params[spec.Name]; !ok {
				params[spec.Name] = defaults[spec.Name]
				changed = true
			}
		}
		if changed {
			rewrites = append(rewrites, rewrite{pos: i, params: params})
		}
	}
	if err := c.applyRewrites(rewrites); err != nil {
		c.restore(snap)
		return err
	}
	if err := c.commit(ctx, snap); err != nil {
		return err
	}
	for _, spec := range specs {
		c.logger.Info("added parameter",
			logging.String("parameter", spec.Name),
			logging.String("kind", spec.Kind.String()),
		)
	}
	return nil
}
