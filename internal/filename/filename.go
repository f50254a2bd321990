// Package filename mints unique catalog file paths and enforces the
// recognized label and extension vocabularies.
package filename

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"librarian/internal/logging"
)

// Generate returns <dir>[/<nested>]/<label>_<uuid>.<ext> with the label run
// through SanitizeLabel. The nested folder is created when missing.
// The random identifier makes physical collisions negligible, so the path
// is not checked against the filesystem.
func Generate(label, dir, ext, nested string) (string, error) {
	target := dir
	if nested != "" {
		if filepath.IsAbs(nested) || strings.Contains(filepath.Clean(nested), "..") {
			return "", fmt.Errorf("nested folder %q must be relative to the catalog directory", nested)
		}
		target = filepath.Join(dir, nested)
		if err := os.MkdirAll(target, 0o755); err != nil {
			return "", fmt.Errorf("create nested folder: %w", err)
		}
	}
	base := SanitizeLabel(label) + "_" + uuid.NewString()
	if ext = NormalizeExtension(ext); ext != "" {
		base += "." + ext
	}
	return filepath.Join(target, base), nil
}

var labelReplacer = strings.NewReplacer(
	" ", "-",
	"/", "-",
	"\\", "-",
	":", "-",
	"*", "-",
	"?", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
)

// SanitizeLabel makes a label safe as a filename prefix. Spaces, slashes,
// colons and asterisks become hyphens; other unsafe characters are dropped.
// An empty result becomes "entry".
func SanitizeLabel(label string) string {
	out := strings.Trim(labelReplacer.Replace(strings.TrimSpace(label)), ".")
	if out == "" {
		return "entry"
	}
	return out
}

// NormalizeExtension strips surrounding whitespace and leading dots.
func NormalizeExtension(ext string) string {
	return strings.TrimLeft(strings.TrimSpace(ext), ".")
}

// Action selects how an unrecognized label or extension is handled.
type Action string

const (
	ActionIgnore Action = "ignore"
	ActionWarn   Action = "warn"
	ActionError  Action = "error"
)

// ParseAction maps a config string to an Action.
func ParseAction(s string) (Action, error) {
	switch Action(strings.ToLower(strings.TrimSpace(s))) {
	case ActionIgnore:
		return ActionIgnore, nil
	case ActionWarn, "":
		return ActionWarn, nil
	case ActionError:
		return ActionError, nil
	}
	return "", fmt.Errorf("unknown recognition action %q", s)
}

// ErrUnrecognized matches every *UnrecognizedValueError.
var ErrUnrecognized = errors.New("unrecognized value")

// UnrecognizedValueError reports a label or extension outside the catalog
// vocabulary.
type UnrecognizedValueError struct {
	What       string
	Value      string
	Recognized []string
}

func (e *UnrecognizedValueError) Error() string {
	return fmt.Sprintf("%s %q is not recognized (known: %s)", e.What, e.Value, strings.Join(e.Recognized, ", "))
}

func (e *UnrecognizedValueError) Unwrap() error { return ErrUnrecognized }

// CheckRecognized reports whether value is in recognized. An empty
// vocabulary accepts everything. Unknown values are ignored, logged, or
// returned as *UnrecognizedValueError depending on action.
func CheckRecognized(value string, recognized []string, what string, action Action, logger *slog.Logger) (bool, error) {
	if len(recognized) == 0 {
		return true, nil
	}
	for _, r := range recognized {
		if r == value {
			return true, nil
		}
	}
	switch action {
	case ActionError:
		return false, &UnrecognizedValueError{What: what, Value: value, Recognized: append([]string(nil), recognized...)}
	case ActionWarn:
		logging.WarnWithContext(logger, "unrecognized "+what, "unrecognized_"+what,
			logging.String(what, value),
			logging.String(logging.FieldErrorHint, "add it to the catalog's recognized "+what+"s"),
			logging.String(logging.FieldImpact, "entry is cataloged anyway"),
		)
	}
	return false, nil
}
