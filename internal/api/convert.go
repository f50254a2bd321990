package api

import (
	"time"

	"librarian/internal/catalog"
	"librarian/internal/fileutil"
	"librarian/internal/schema"
)

// FromEntry converts a catalog entry into its view. Number is the 1-based
// position shown by list output.
func FromEntry(number int, e catalog.Entry) EntryView {
	return EntryView{
		Number:     number,
		Label:      e.Label,
		Key:        string(e.Key()),
		Parameters: plainParams(e.Params),
		Filename:   e.Filename,
		AddedAt:    formatTime(e.CreatedAt),
		Exists:     fileutil.Exists(e.Filename),
	}
}

// FromEntries numbers entries in order starting at 1.
func FromEntries(entries []catalog.Entry) []EntryView {
	views := make([]EntryView, 0, len(entries))
	for i, e := range entries {
		views = append(views, FromEntry(i+1, e))
	}
	return views
}

// FromCatalog builds the info view of c.
func FromCatalog(c *catalog.Catalog) CatalogInfo {
	if c == nil {
		return CatalogInfo{}
	}
	s := c.Schema()
	info := CatalogInfo{
		Name:                 c.Name(),
		Path:                 c.Path(),
		Description:          c.Description(),
		Entries:              c.Len(),
		Labels:               nonNil(c.Labels()),
		RecognizedLabels:     nonNil(c.RecognizedLabels()),
		RecognizedExtensions: nonNil(c.RecognizedExtensions()),
		Strict:               s.Strict(),
		Parameters:           FromSchema(s),
		CreatedAt:            formatTime(c.Created()),
		ModifiedAt:           formatTime(c.Modified()),
	}
	return info
}

// FromSchema lists declared parameters in declaration order.
func FromSchema(s *schema.Schema) []ParameterView {
	if s == nil {
		return []ParameterView{}
	}
	params := s.Params()
	views := make([]ParameterView, 0, len(params))
	for _, p := range params {
		view := ParameterView{Name: p.Name, Kind: p.Kind.String(), Required: !p.HasDefault()}
		if p.HasDefault() {
			view.Default = p.Default.Interface()
		}
		views = append(views, view)
	}
	return views
}

// FromClosest converts a closest-parameters result. Matches are numbered
// within the result, not by catalog position.
func FromClosest(res catalog.Closest) ClosestView {
	view := ClosestView{
		Agreement: res.Agreement,
		Perfect:   res.Agreement == catalog.PerfectMatch,
		Matches:   make([]EntryView, 0, len(res.Filenames)),
	}
	for i := range res.Filenames {
		view.Matches = append(view.Matches, FromEntry(i+1, catalog.Entry{
			Label:    res.Labels[i],
			Params:   res.Params[i],
			Filename: res.Filenames[i],
		}))
	}
	return view
}

func plainParams(p schema.Params) map[string]any {
	if len(p) == 0 {
		return map[string]any{}
	}
	return p.Plain()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateTimeFormat)
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
