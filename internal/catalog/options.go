package catalog

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"librarian/internal/conflict"
	"librarian/internal/filename"
	"librarian/internal/schema"
)

// LoadMode controls whether Open reads an existing catalog file.
type LoadMode int

const (
	// LoadIfExists loads the file when present and starts fresh otherwise.
	LoadIfExists LoadMode = iota
	// LoadRequired fails when the file is missing.
	LoadRequired
	// LoadNever starts fresh and replaces any existing file on first save.
	LoadNever
)

func (m LoadMode) String() string {
	switch m {
	case LoadRequired:
		return "required"
	case LoadNever:
		return "never"
	default:
		return "if-exists"
	}
}

// ParseLoadMode accepts "required", "if-exists" (or "always") and "never".
func ParseLoadMode(s string) (LoadMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "if-exists", "always":
		return LoadIfExists, nil
	case "required":
		return LoadRequired, nil
	case "never":
		return LoadNever, nil
	}
	return LoadIfExists, fmt.Errorf("unknown load mode %q", s)
}

const (
	defaultLoadAttempts = 12
	defaultLoadDelay    = 5 * time.Second
	defaultLockTimeout  = 30 * time.Second
)

// Options configure Open. Schema, labels, extensions and description only
// seed a fresh catalog; a loaded catalog keeps its persisted values.
type Options struct {
	Name        string
	Dir         string
	Description string

	Schema               *schema.Schema
	RecognizedLabels     []string
	RecognizedExtensions []string

	LoadMode LoadMode
	// Resolver handles filename collisions. Nil means Fixed(Skip).
	Resolver        conflict.Resolver
	LabelAction     filename.Action
	ExtensionAction filename.Action

	LoadAttempts int
	// LoadDelay is the pause between load attempts; negative retries at once.
	LoadDelay   time.Duration
	LockTimeout time.Duration

	Logger *slog.Logger
	// Clock overrides time.Now for timestamps.
	Clock func() time.Time
}

func (o Options) withDefaults() Options {
	if o.LabelAction == "" {
		o.LabelAction = filename.ActionWarn
	}
	if o.ExtensionAction == "" {
		o.ExtensionAction = filename.ActionWarn
	}
	if o.LoadAttempts <= 0 {
		o.LoadAttempts = defaultLoadAttempts
	}
	if o.LoadDelay < 0 {
		o.LoadDelay = 0
	} else if o.LoadDelay == 0 {
		o.LoadDelay = defaultLoadDelay
	}
	if o.LockTimeout <= 0 {
		o.LockTimeout = defaultLockTimeout
	}
	if o.Resolver == nil {
		o.Resolver = conflict.Fixed(conflict.Skip)
	}
	if o.Clock == nil {
		o.Clock = time.Now
	}
	return o
}
