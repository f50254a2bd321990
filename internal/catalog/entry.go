package catalog

import (
	"time"

	"librarian/internal/keycodec"
	"librarian/internal/schema"
)

// Entry is one cataloged file. Entries are replaced as a whole, never
// mutated in place.
type Entry struct {
	Label     string
	Params    schema.Params
	Filename  string
	CreatedAt time.Time
}

// Key returns the encoded parameter key of the entry.
func (e Entry) Key() keycodec.Key { return keycodec.Encode(e.Params) }

func (e Entry) clone() Entry {
	e.Params = e.Params.Clone()
	return e
}

// LabelParams is one element of the ordered (label, parameters) view.
type LabelParams struct {
	Label  string
	Params schema.Params
}

type indexKey struct {
	label string
	key   keycodec.Key
}

func keyOf(label string, params schema.Params) indexKey {
	return indexKey{label: label, key: keycodec.Encode(params)}
}
