package catalog

import (
	"slices"

	"librarian/internal/schema"
)

// Filter selects entries by label and by accepted parameter values. An empty
// filter matches everything. Each Params entry lists the accepted values for
// one parameter; an entry matches when its value equals any of them.
type Filter struct {
	Labels []string
	Params map[string][]any
}

// IsZero reports whether the filter matches every entry.
func (f Filter) IsZero() bool {
	return len(f.Labels) == 0 && len(f.Params) == 0
}

type matcher struct {
	labels []string
	params map[string][]schema.Value
}

// compile coerces accepted values to their declared kinds so that "10" and
// 10 select the same entries of an int parameter.
func (f Filter) compile(s *schema.Schema) (matcher, error) {
	m := matcher{labels: f.Labels}
	if len(f.Params) == 0 {
		return m, nil
	}
	m.params = make(map[string][]schema.Value, len(f.Params))
	for name, accepted := range f.Params {
		values := make([]schema.Value, 0, len(accepted))
		for _, raw := range accepted {
			v, err := s.CastValue(name, raw)
			if err != nil {
				return matcher{}, err
			}
			values = append(values, v)
		}
		m.params[name] = values
	}
	return m, nil
}

func (m matcher) match(e Entry) bool {
	if len(m.labels) > 0 && !slices.Contains(m.labels, e.Label) {
		return false
	}
	for name, accepted := range m.params {
		v, ok := e.Params[name]
		if !ok {
			return false
		}
		if !slices.ContainsFunc(accepted, v.Equal) {
			return false
		}
	}
	return true
}
