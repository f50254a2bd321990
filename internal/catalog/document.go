package catalog

import (
	"errors"
	"fmt"
	"maps"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"librarian/internal/schema"
)

// Top-level keys of the persisted document. Any other top-level key is a
// label holding that label's entries.
const (
	keyRecognizedNames      = "recognized names"
	keyRecognizedExtensions = "recognized extensions"
	keyName                 = "name"
	keyDescription          = "description"
	keyDirectory            = "directory"
	keyLocation             = "yaml location"
	keyCreated              = "creation time"
	keyModified             = "last modified"
	keyFiles                = "files"
	keyPairs                = "(label, parameter) pairs"
	keyTypes                = "parameter types"
	keyDefaults             = "default parameters"
	keyStrict               = "strict parameters"

	pairLabel  = "label"
	pairParams = "parameters"
)

// TimeLayout formats every timestamp in the document. Times are written
// and read in the local zone.
const TimeLayout = "2006-01-02 15:04:05"

func formatTime(t time.Time) string {
	return t.In(time.Local).Format(TimeLayout)
}

var reservedKeys = map[string]struct{}{
	keyRecognizedNames: {}, keyRecognizedExtensions: {}, keyName: {}, keyDescription: {},
	keyDirectory: {}, keyLocation: {}, keyCreated: {}, keyModified: {}, keyFiles: {},
	keyPairs: {}, keyTypes: {}, keyDefaults: {}, keyStrict: {},
}

func isReservedKey(label string) bool {
	_, ok := reservedKeys[label]
	return ok
}

// errIncomplete marks a document that parsed but lacks its trailing key,
// which is what a reader sees while another process is mid-write.
var errIncomplete = errors.New("catalog document is incomplete")

// state is the decoded form of a document.
type state struct {
	name        string
	description string
	schema      *schema.Schema
	labels      []string
	extensions  []string
	entries     []Entry
	created     time.Time
	modified    time.Time
}

func mapping() *yaml.Node { return &yaml.Node{Kind: yaml.MappingNode} }

func scalar(tag, value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: value}
}

func str(s string) *yaml.Node { return scalar("!!str", s) }

func strList(values []string) *yaml.Node {
	n := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
	for _, v := range values {
		n.Content = append(n.Content, str(v))
	}
	return n
}

func put(m *yaml.Node, key string, value *yaml.Node) {
	m.Content = append(m.Content, str(key), value)
}

func valueNode(v schema.Value) *yaml.Node {
	switch v.Kind() {
	case schema.KindInt:
		return scalar("!!int", v.String())
	case schema.KindFloat:
		f, _ := v.AsFloat()
		return scalar("!!float", formatFloat(f))
	case schema.KindBool:
		return scalar("!!bool", v.String())
	case schema.KindStringList:
		list, _ := v.AsStringList()
		return strList(list)
	default:
		return str(v.String())
	}
}

// formatFloat keeps integral floats recognizable as floats when read back.
func formatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return ".inf"
	case math.IsInf(f, -1):
		return "-.inf"
	case math.IsNaN(f):
		return ".nan"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

func paramsNode(p schema.Params) *yaml.Node {
	m := mapping()
	for _, name := range p.Names() {
		put(m, name, valueNode(p[name]))
	}
	return m
}

// encodeDocument renders the catalog body. Labels appear in first-use order
// and entries within a label in table order.
func (c *Catalog) encodeDocument() *yaml.Node {
	doc := mapping()
	put(doc, keyRecognizedNames, strList(c.labels))
	put(doc, keyRecognizedExtensions, strList(c.extensions))

	labelNodes := make(map[string]*yaml.Node)
	for _, e := range c.entries {
		ln, ok := labelNodes[e.Label]
		if !ok {
			ln = mapping()
			labelNodes[e.Label] = ln
			put(doc, e.Label, ln)
		}
		entry := paramsNode(e.Params)
		put(entry, "filename", str(e.Filename))
		put(entry, "date added", str(formatTime(e.CreatedAt)))
		put(ln, e.Key().String(), entry)
	}

	put(doc, keyName, str(c.name))
	put(doc, keyDescription, str(c.description))
	put(doc, keyDirectory, str(c.dir))
	put(doc, keyLocation, str(c.path))
	put(doc, keyCreated, str(formatTime(c.created)))
	put(doc, keyModified, str(formatTime(c.modified)))

	files := &yaml.Node{Kind: yaml.SequenceNode}
	pairs := &yaml.Node{Kind: yaml.SequenceNode}
	for _, e := range c.entries {
		files.Content = append(files.Content, str(e.Filename))
		pair := mapping()
		put(pair, pairLabel, str(e.Label))
		put(pair, pairParams, paramsNode(e.Params))
		pairs.Content = append(pairs.Content, pair)
	}
	put(doc, keyFiles, files)
	put(doc, keyPairs, pairs)

	types := mapping()
	defaults := mapping()
	for _, p := range c.schema.Params() {
		put(types, p.Name, str(p.Kind.String()))
		if p.Default != nil {
			put(defaults, p.Name, valueNode(*p.Default))
		}
	}
	put(doc, keyTypes, types)
	put(doc, keyDefaults, defaults)
	put(doc, keyStrict, scalar("!!bool", strconv.FormatBool(c.schema.Strict())))
	return doc
}

// header renders the comment block that precedes the document.
func (c *Catalog) header() string {
	var b strings.Builder
	rule := "# " + strings.Repeat("=", 60) + "\n"
	b.WriteString(rule)
	fmt.Fprintf(&b, "# Catalog for %s\n", c.name)
	fmt.Fprintf(&b, "# Location: %s\n", c.path)
	if c.description != "" {
		for _, line := range strings.Split(c.description, "\n") {
			fmt.Fprintf(&b, "# %s\n", line)
		}
	}
	b.WriteString("#\n")
	fmt.Fprintf(&b, "# Recognized labels: %s\n", listOrNone(c.labels))
	fmt.Fprintf(&b, "# Recognized extensions: %s\n", listOrNone(c.extensions))
	fmt.Fprintf(&b, "# Created: %s\n", formatTime(c.created))
	fmt.Fprintf(&b, "# Last modified: %s\n", formatTime(c.modified))
	fmt.Fprintf(&b, "# Entries: %d\n", len(c.entries))
	b.WriteString("#\n# Parameters:\n")
	params := c.schema.Params()
	if len(params) == 0 {
		b.WriteString("#   (none)\n")
	}
	for _, p := range params {
		if p.Default != nil {
			fmt.Fprintf(&b, "#   %s (%s, default %s)\n", p.Name, p.Kind, p.Default.String())
		} else {
			fmt.Fprintf(&b, "#   %s (%s, required)\n", p.Name, p.Kind)
		}
	}
	b.WriteString(rule)
	return b.String()
}

func listOrNone(values []string) string {
	if len(values) == 0 {
		return "(any)"
	}
	return strings.Join(values, ", ")
}

// decodeDocument rebuilds catalog state from a parsed document. The ordered
// files and pairs lists are authoritative for entry order; the per-label
// maps supply the date each file was added.
func decodeDocument(root *yaml.Node) (*state, error) {
	if root == nil || root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return nil, errIncomplete
	}
	doc := root.Content[0]
	if doc.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("catalog document is not a mapping")
	}

	fields := make(map[string]*yaml.Node)
	labelNodes := make(map[string]*yaml.Node)
	for i := 0; i+1 < len(doc.Content); i += 2 {
		key := doc.Content[i].Value
		if isReservedKey(key) {
			fields[key] = doc.Content[i+1]
		} else {
			labelNodes[key] = doc.Content[i+1]
		}
	}
	if _, ok := fields[keyStrict]; !ok {
		return nil, errIncomplete
	}

	st := &state{}
	var err error
	if err = decodeField(fields, keyName, &st.name); err != nil {
		return nil, err
	}
	if err = decodeField(fields, keyDescription, &st.description); err != nil {
		return nil, err
	}
	if err = decodeField(fields, keyRecognizedNames, &st.labels); err != nil {
		return nil, err
	}
	if err = decodeField(fields, keyRecognizedExtensions, &st.extensions); err != nil {
		return nil, err
	}
	if st.created, err = decodeTime(fields, keyCreated); err != nil {
		return nil, err
	}
	if st.modified, err = decodeTime(fields, keyModified); err != nil {
		return nil, err
	}
	if st.schema, err = decodeSchema(fields); err != nil {
		return nil, err
	}

	var files []string
	if err := decodeField(fields, keyFiles, &files); err != nil {
		return nil, err
	}
	pairsNode := fields[keyPairs]
	var pairs []*yaml.Node
	if pairsNode != nil {
		if pairsNode.Kind != yaml.SequenceNode {
			return nil, fmt.Errorf("%s: expected a list", keyPairs)
		}
		pairs = pairsNode.Content
	}
	if len(pairs) != len(files) {
		return nil, &ConsistencyError{Detail: fmt.Sprintf("%d files but %d (label, parameter) pairs", len(files), len(pairs))}
	}

	added, err := decodeAddedDates(labelNodes)
	if err != nil {
		return nil, err
	}

	st.entries = make([]Entry, 0, len(files))
	for i, pair := range pairs {
		label, params, err := decodePair(st.schema, pair)
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", keyPairs, i, err)
		}
		at, ok := added[files[i]]
		if !ok {
			return nil, &ConsistencyError{Detail: fmt.Sprintf("file %s is listed but missing from label %q", files[i], label)}
		}
		if at.label != label {
			return nil, &ConsistencyError{Detail: fmt.Sprintf("file %s is listed under %q but filed under %q", files[i], label, at.label)}
		}
		st.entries = append(st.entries, Entry{Label: label, Params: params, Filename: files[i], CreatedAt: at.when})
	}
	return st, nil
}

func decodeField(fields map[string]*yaml.Node, key string, dst any) error {
	n, ok := fields[key]
	if !ok {
		return nil
	}
	if err := n.Decode(dst); err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	return nil
}

func decodeTime(fields map[string]*yaml.Node, key string) (time.Time, error) {
	var raw string
	if err := decodeField(fields, key, &raw); err != nil || raw == "" {
		return time.Time{}, err
	}
	t, err := time.ParseInLocation(TimeLayout, raw, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: %w", key, err)
	}
	return t, nil
}

func decodeSchema(fields map[string]*yaml.Node) (*schema.Schema, error) {
	var strict bool
	if err := decodeField(fields, keyStrict, &strict); err != nil {
		return nil, err
	}
	s := schema.New(strict)

	defaults := make(map[string]any)
	if n := fields[keyDefaults]; n != nil {
		if err := n.Decode(&defaults); err != nil {
			return nil, fmt.Errorf("%s: %w", keyDefaults, err)
		}
	}

	types := fields[keyTypes]
	if types == nil {
		if len(defaults) > 0 {
			return nil, fmt.Errorf("%s without %s", keyDefaults, keyTypes)
		}
		return s, nil
	}
	if types.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%s: expected a mapping", keyTypes)
	}
	for i := 0; i+1 < len(types.Content); i += 2 {
		name := types.Content[i].Value
		kind, err := schema.ParseKind(types.Content[i+1].Value)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", keyTypes, name, err)
		}
		def, hasDefault := defaults[name]
		if hasDefault && def == nil {
			return nil, fmt.Errorf("%s.%s: null default", keyDefaults, name)
		}
		if err := s.Declare(name, kind, def); err != nil {
			return nil, fmt.Errorf("%s.%s: %w", keyTypes, name, err)
		}
		delete(defaults, name)
	}
	if len(defaults) > 0 {
		names := slices.Sorted(maps.Keys(defaults))
		return nil, fmt.Errorf("%s.%s: default for undeclared parameter", keyDefaults, names[0])
	}
	return s, nil
}

type addedAt struct {
	label string
	when  time.Time
}

func decodeAddedDates(labels map[string]*yaml.Node) (map[string]addedAt, error) {
	out := make(map[string]addedAt)
	for label, node := range labels {
		if node.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("label %q: expected a mapping", label)
		}
		for i := 0; i+1 < len(node.Content); i += 2 {
			var entry struct {
				Filename  string `yaml:"filename"`
				DateAdded string `yaml:"date added"`
			}
			if err := node.Content[i+1].Decode(&entry); err != nil {
				return nil, fmt.Errorf("label %q key %q: %w", label, node.Content[i].Value, err)
			}
			when, err := time.ParseInLocation(TimeLayout, entry.DateAdded, time.Local)
			if err != nil {
				return nil, fmt.Errorf("label %q key %q: date added: %w", label, node.Content[i].Value, err)
			}
			out[entry.Filename] = addedAt{label: label, when: when}
		}
	}
	return out, nil
}

// decodePair reads one element of the pairs list. Values are coerced to
// their declared kinds; names no longer declared, as left behind by an
// interrupted migration, keep their natural kind.
func decodePair(s *schema.Schema, n *yaml.Node) (string, schema.Params, error) {
	var pair struct {
		Label  string         `yaml:"label"`
		Params map[string]any `yaml:"parameters"`
	}
	if err := n.Decode(&pair); err != nil {
		return "", nil, err
	}
	params := make(schema.Params, len(pair.Params))
	for name, raw := range pair.Params {
		v, err := s.CastValue(name, raw)
		if err != nil {
			return "", nil, err
		}
		params[name] = v
	}
	return pair.Label, params, nil
}
