package schema

import (
	"fmt"
	"math"
	"slices"
	"sort"
	"strconv"
	"strings"
)

// Kind enumerates the parameter types a catalog can declare.
type Kind int

const (
	// KindUnset is the zero Kind; it never describes a stored value.
	KindUnset Kind = iota
	KindInt
	KindFloat
	KindString
	KindBool
	KindStringList
)

var kindNames = map[Kind]string{
	KindInt:        "int",
	KindFloat:      "float",
	KindString:     "str",
	KindBool:       "bool",
	KindStringList: "list",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unset"
}

// ParseKind accepts the persisted kind names plus a few common aliases.
func ParseKind(name string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "int", "integer":
		return KindInt, nil
	case "float", "double", "number":
		return KindFloat, nil
	case "str", "string":
		return KindString, nil
	case "bool", "boolean":
		return KindBool, nil
	case "list", "list[str]", "strings":
		return KindStringList, nil
	default:
		return KindUnset, fmt.Errorf("unknown parameter kind %q", name)
	}
}

// Value is a tagged variant holding one parameter value.
type Value struct {
	kind Kind
	i    int64
	f    float64
	s    string
	b    bool
	list []string
}

func Int(v int64) Value { return Value{kind: KindInt, i: v} }

func Float(v float64) Value { return Value{kind: KindFloat, f: v} }

func String(v string) Value { return Value{kind: KindString, s: v} }

func Bool(v bool) Value { return Value{kind: KindBool, b: v} }

func StringList(v ...string) Value {
	return Value{kind: KindStringList, list: append([]string{}, v...)}
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsZero() bool { return v.kind == KindUnset }

func (v Value) AsInt() (int64, bool) { return v.i, v.kind == KindInt }

func (v Value) AsFloat() (float64, bool) { return v.f, v.kind == KindFloat }

func (v Value) AsString() (string, bool) { return v.s, v.kind == KindString }

func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

func (v Value) AsStringList() ([]string, bool) {
	return append([]string(nil), v.list...), v.kind == KindStringList
}

// String returns the canonical text form used for key encoding and display.
func (v Value) String() string {
	switch v.kind {
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindString:
		return v.s
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindStringList:
		return "[" + strings.Join(v.list, ", ") + "]"
	default:
		return ""
	}
}

// Interface returns the value as a plain Go value suitable for encoders.
func (v Value) Interface() any {
	switch v.kind {
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindString:
		return v.s
	case KindBool:
		return v.b
	case KindStringList:
		return append([]string{}, v.list...)
	default:
		return nil
	}
}

// Equal reports whether two values have the same kind and content.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindInt:
		return v.i == o.i
	case KindFloat:
		return v.f == o.f || (math.IsNaN(v.f) && math.IsNaN(o.f))
	case KindString:
		return v.s == o.s
	case KindBool:
		return v.b == o.b
	case KindStringList:
		return slices.Equal(v.list, o.list)
	default:
		return true
	}
}

// Params is a parameter set keyed by parameter name.
type Params map[string]Value

// Names returns the parameter names in lexical order.
func (p Params) Names() []string {
	names := make([]string, 0, len(p))
	for name := range p {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (p Params) Clone() Params {
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

func (p Params) Equal(o Params) bool {
	if len(p) != len(o) {
		return false
	}
	for k, v := range p {
		ov, ok := o[k]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}

// Plain converts the set into plain Go values.
func (p Params) Plain() map[string]any {
	out := make(map[string]any, len(p))
	for k, v := range p {
		out[k] = v.Interface()
	}
	return out
}

func (p Params) String() string {
	parts := make([]string, 0, len(p))
	for _, name := range p.Names() {
		parts = append(parts, name+"="+p[name].String())
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
