package api

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"librarian/internal/catalog"
)

// ErrInvalidAssignment reports a malformed name=value argument.
var ErrInvalidAssignment = errors.New("invalid assignment")

// ParseAssignments turns name=value arguments into a parameter map. Values
// are read as YAML scalars or flow sequences: 10 is an int, 2.5 a float,
// true a bool and [a, b] a list. Quote a value ("10") to keep it a string.
func ParseAssignments(args []string) (map[string]any, error) {
	out := make(map[string]any, len(args))
	for _, arg := range args {
		name, raw, err := splitAssignment(arg)
		if err != nil {
			return nil, err
		}
		if _, dup := out[name]; dup {
			return nil, fmt.Errorf("%w: %s given twice", ErrInvalidAssignment, name)
		}
		out[name] = parseValue(raw)
	}
	return out, nil
}

// ParseFilter builds a filter from label names and name=value arguments.
// Repeating a name accepts any of its values.
func ParseFilter(labels, where []string) (catalog.Filter, error) {
	f := catalog.Filter{}
	for _, label := range labels {
		if label = strings.TrimSpace(label); label != "" {
			f.Labels = append(f.Labels, label)
		}
	}
	for _, arg := range where {
		name, raw, err := splitAssignment(arg)
		if err != nil {
			return catalog.Filter{}, err
		}
		if f.Params == nil {
			f.Params = make(map[string][]any)
		}
		f.Params[name] = append(f.Params[name], parseValue(raw))
	}
	return f, nil
}

func splitAssignment(arg string) (string, string, error) {
	name, raw, ok := strings.Cut(arg, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return "", "", fmt.Errorf("%w: expected name=value, got %q", ErrInvalidAssignment, arg)
	}
	return name, raw, nil
}

func parseValue(raw string) any {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	var v any
	if err := yaml.Unmarshal([]byte(trimmed), &v); err != nil {
		return trimmed
	}
	switch x := v.(type) {
	case int, int64, uint64, float64, bool, string, []any:
		return x
	}
	return trimmed
}
