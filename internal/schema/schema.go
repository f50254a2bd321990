package schema

import (
	"fmt"
	"sort"
)

// Names that share the persisted per-entry mapping and cannot be parameters.
const (
	ReservedFilename  = "filename"
	ReservedDateAdded = "date added"
)

// IsReserved reports whether name collides with per-entry bookkeeping keys.
func IsReserved(name string) bool {
	return name == ReservedFilename || name == ReservedDateAdded
}

// Param is one declaration. Default is nil for required parameters.
type Param struct {
	Name    string
	Kind    Kind
	Default *Value
}

// HasDefault reports whether the parameter is optional.
func (p Param) HasDefault() bool { return p.Default != nil }

// Schema holds ordered parameter declarations. The zero value is an empty
// lenient schema; use New for a strict one.
type Schema struct {
	params []Param
	index  map[string]int
	strict bool
}

// New returns an empty schema.
func New(strict bool) *Schema {
	return &Schema{index: make(map[string]int), strict: strict}
}

// Strict reports whether undeclared keys are rejected by Cast.
func (s *Schema) Strict() bool { return s.strict }

func (s *Schema) SetStrict(strict bool) { s.strict = strict }

// Params returns the declarations in declaration order.
func (s *Schema) Params() []Param {
	out := make([]Param, len(s.params))
	copy(out, s.params)
	return out
}

// Names returns declared names in declaration order.
func (s *Schema) Names() []string {
	names := make([]string, len(s.params))
	for i, p := range s.params {
		names[i] = p.Name
	}
	return names
}

func (s *Schema) Len() int { return len(s.params) }

// Lookup returns the declaration for name.
func (s *Schema) Lookup(name string) (Param, bool) {
	if s.index == nil {
		return Param{}, false
	}
	i, ok := s.index[name]
	if !ok {
		return Param{}, false
	}
	return s.params[i], true
}

// Defaults returns the default values of optional parameters.
func (s *Schema) Defaults() Params {
	out := make(Params)
	for _, p := range s.params {
		if p.Default != nil {
			out[p.Name] = *p.Default
		}
	}
	return out
}

// Clone returns an independent copy.
func (s *Schema) Clone() *Schema {
	out := New(s.strict)
	for _, p := range s.params {
		out.put(p)
	}
	return out
}

// Equal compares declarations, order, defaults and strictness.
func (s *Schema) Equal(o *Schema) bool {
	if s == nil || o == nil {
		return s == o
	}
	if s.strict != o.strict || len(s.params) != len(o.params) {
		return false
	}
	for i, p := range s.params {
		q := o.params[i]
		if p.Name != q.Name || p.Kind != q.Kind || p.HasDefault() != q.HasDefault() {
			return false
		}
		if p.HasDefault() && !p.Default.Equal(*q.Default) {
			return false
		}
	}
	return true
}

// Declare adds a parameter without requiring a default. It is used when
// building a schema from scratch; AddParameter governs later extension.
func (s *Schema) Declare(name string, kind Kind, def any) error {
	if err := s.checkName(name); err != nil {
		return err
	}
	if _, exists := s.Lookup(name); exists {
		return newSchemaError(ErrAlreadyDeclared, name, "", nil)
	}
	p, err := s.buildParam(name, kind, def)
	if err != nil {
		return err
	}
	s.put(p)
	return nil
}

// AddParameter extends the schema with a new optional parameter. A default
// is mandatory so entries cataloged before the change stay readable.
func (s *Schema) AddParameter(name string, kind Kind, def any) error {
	if err := s.checkName(name); err != nil {
		return err
	}
	if _, exists := s.Lookup(name); exists {
		return newSchemaError(ErrAlreadyDeclared, name, "", nil)
	}
	if def == nil {
		return newSchemaError(ErrMissingDefault, name, "new parameters need a default", nil)
	}
	p, err := s.buildParam(name, kind, def)
	if err != nil {
		return err
	}
	s.put(p)
	return nil
}

// RemoveParameter drops a declaration and its default.
func (s *Schema) RemoveParameter(name string) error {
	i, ok := s.index[name]
	if !ok {
		return newSchemaError(ErrNotDeclared, name, "", nil)
	}
	s.params = append(s.params[:i], s.params[i+1:]...)
	s.reindex()
	return nil
}

// Put inserts or replaces a declaration in place.
func (s *Schema) Put(p Param) error {
	if err := s.checkName(p.Name); err != nil {
		return err
	}
	if p.Kind == KindUnset {
		return newSchemaError(ErrTypeMismatch, p.Name, "kind must be set", nil)
	}
	if p.Default != nil {
		coerced, err := coerce(p.Name, p.Kind, p.Default.Interface())
		if err != nil {
			return err
		}
		p.Default = &coerced
	}
	s.put(p)
	return nil
}

func (s *Schema) buildParam(name string, kind Kind, def any) (Param, error) {
	if kind == KindUnset {
		return Param{}, newSchemaError(ErrTypeMismatch, name, "kind must be set", nil)
	}
	p := Param{Name: name, Kind: kind}
	if def != nil {
		v, err := coerce(name, kind, def)
		if err != nil {
			return Param{}, err
		}
		p.Default = &v
	}
	return p, nil
}

func (s *Schema) checkName(name string) error {
	if name == "" {
		return newSchemaError(ErrReservedName, name, "empty name", nil)
	}
	if IsReserved(name) {
		return newSchemaError(ErrReservedName, name, "", nil)
	}
	return nil
}

func (s *Schema) put(p Param) {
	if s.index == nil {
		s.index = make(map[string]int)
	}
	if i, ok := s.index[p.Name]; ok {
		s.params[i] = p
		return
	}
	s.index[p.Name] = len(s.params)
	s.params = append(s.params, p)
}

func (s *Schema) reindex() {
	s.index = make(map[string]int, len(s.params))
	for i, p := range s.params {
		s.index[p.Name] = i
	}
}

// Cast coerces input into a typed parameter set. Defaults are applied
// first and overlaid by input values.
func (s *Schema) Cast(input map[string]any) (Params, error) {
	out := s.Defaults()

	keys := make([]string, 0, len(input))
	for k := range input {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, name := range keys {
		raw := input[name]
		p, declared := s.Lookup(name)
		if !declared {
			if s.strict {
				return nil, newSchemaError(ErrUnknownKey, name, "", nil)
			}
			if IsReserved(name) {
				return nil, newSchemaError(ErrReservedName, name, "", nil)
			}
			v, err := Infer(raw)
			if err != nil {
				return nil, newSchemaError(ErrTypeMismatch, name, "", err)
			}
			out[name] = v
			continue
		}
		v, err := coerce(name, p.Kind, raw)
		if err != nil {
			return nil, err
		}
		out[name] = v
	}

	for _, p := range s.params {
		if _, ok := out[p.Name]; !ok {
			return nil, newSchemaError(ErrMissingParameter, p.Name, "no value and no default", nil)
		}
	}
	return out, nil
}

// CastValue coerces a single value to the declared kind of name. Undeclared
// names infer their kind.
func (s *Schema) CastValue(name string, raw any) (Value, error) {
	if p, ok := s.Lookup(name); ok {
		return coerce(name, p.Kind, raw)
	}
	v, err := Infer(raw)
	if err != nil {
		return Value{}, newSchemaError(ErrTypeMismatch, name, "", err)
	}
	return v, nil
}

func (s *Schema) String() string {
	return fmt.Sprintf("schema(%d params, strict=%t)", len(s.params), s.strict)
}
