package api

// dateTimeFormat is used for RFC3339 timestamps in view payloads.
const dateTimeFormat = "2006-01-02T15:04:05Z07:00"

// EntryView describes a cataloged file in a transport-friendly format.
type EntryView struct {
	Number     int            `json:"number"`
	Label      string         `json:"label"`
	Key        string         `json:"key"`
	Parameters map[string]any `json:"parameters"`
	Filename   string         `json:"filename"`
	AddedAt    string         `json:"addedAt,omitempty"`
	Exists     bool           `json:"exists"`
}

// ParameterView describes one declared parameter.
type ParameterView struct {
	Name     string `json:"name"`
	Kind     string `json:"kind"`
	Default  any    `json:"default,omitempty"`
	Required bool   `json:"required"`
}

// CatalogInfo summarizes a catalog for the info command.
type CatalogInfo struct {
	Name                 string          `json:"name"`
	Path                 string          `json:"path"`
	Description          string          `json:"description,omitempty"`
	Entries              int             `json:"entries"`
	Labels               []string        `json:"labels"`
	RecognizedLabels     []string        `json:"recognizedLabels"`
	RecognizedExtensions []string        `json:"recognizedExtensions"`
	Strict               bool            `json:"strict"`
	Parameters           []ParameterView `json:"parameters"`
	CreatedAt            string          `json:"createdAt,omitempty"`
	ModifiedAt           string          `json:"modifiedAt,omitempty"`
}

// ClosestView wraps a closest-parameters query result.
type ClosestView struct {
	Agreement int         `json:"agreement"`
	Perfect   bool        `json:"perfect"`
	Matches   []EntryView `json:"matches"`
}

// EntryListResponse wraps a collection of entries for JSON output.
type EntryListResponse struct {
	Items []EntryView `json:"items"`
}
