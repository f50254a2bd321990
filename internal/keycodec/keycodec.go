// Package keycodec derives the canonical lookup key of a parameter set.
package keycodec

import (
	"strings"

	"librarian/internal/schema"
)

// Separators between a name and its value and between pairs.
const (
	PairSeparator = " : "
	ItemSeparator = " | "
)

// Key is the encoded form of a parameter set. It is only ever used as a map
// key or shown in diagnostics.
type Key string

var (
	escaper      = strings.NewReplacer(`\`, `\\`, `|`, `\|`, `:`, `\:`)
	valueEscaper = strings.NewReplacer(`\`, `\\`, `|`, `\|`, `:`, `\:`, `[`, `\[`, `]`, `\]`)
	itemEscaper  = strings.NewReplacer(`\`, `\\`, `|`, `\|`, `:`, `\:`, `[`, `\[`, `]`, `\]`, `,`, `\,`)
)

// Encode sorts pairs by name and joins them. Names, values and list items
// are escaped, so two sets encode equally exactly when their (name, string
// value) pairs are identical. A list is written as [a, b]; brackets in
// scalars and commas in list items are escaped so neither can imitate it.
func Encode(params schema.Params) Key {
	if len(params) == 0 {
		return ""
	}
	var b strings.Builder
	for i, name := range params.Names() {
		if i > 0 {
			b.WriteString(ItemSeparator)
		}
		b.WriteString(escaper.Replace(name))
		b.WriteString(PairSeparator)
		b.WriteString(encodeValue(params[name]))
	}
	return Key(b.String())
}

func encodeValue(v schema.Value) string {
	items, ok := v.AsStringList()
	if !ok {
		return valueEscaper.Replace(v.String())
	}
	escaped := make([]string, len(items))
	for i, item := range items {
		escaped[i] = itemEscaper.Replace(item)
	}
	return "[" + strings.Join(escaped, ", ") + "]"
}

func (k Key) String() string { return string(k) }
