package conflict

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"librarian/internal/logging"
)

// Outcome is the terminal state of one collision check.
type Outcome struct {
	State    State
	Decision Decision
	// OldRemoved is set when an overwrite unlinked the superseded file.
	OldRemoved bool
}

// Proceed reports whether the caller should mint the new entry.
func (o Outcome) Proceed() bool {
	return o.State == Unchecked || o.Decision == Overwrite
}

// Options tune Evaluate. Zero values use os.Stat and os.Remove.
type Options struct {
	Logger *slog.Logger
	Stat   func(string) (fs.FileInfo, error)
	Remove func(string) error
}

// Evaluate runs the collision state machine for c. When c.Existing is empty
// or missing on disk there is no collision and the outcome stays Unchecked.
// Overwrite removes the old file; a failed unlink is logged and does not
// stop the caller. Cancel returns ErrCancelled.
func Evaluate(ctx context.Context, resolver Resolver, c Conflict, opts Options) (Outcome, error) {
	logger := logging.NewComponentLogger(opts.Logger, "conflict")
	stat := opts.Stat
	if stat == nil {
		stat = os.Stat
	}
	remove := opts.Remove
	if remove == nil {
		remove = os.Remove
	}

	if c.Existing == "" {
		return Outcome{State: Unchecked}, nil
	}
	if _, err := stat(c.Existing); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Debug("indexed file missing on disk, replacing entry",
				logging.String(logging.FieldFilename, c.Existing))
			return Outcome{State: Unchecked}, nil
		}
		return Outcome{State: Unchecked}, fmt.Errorf("stat existing file: %w", err)
	}

	if resolver == nil {
		resolver = Fixed(Skip)
	}
	decision, err := resolver.Resolve(ctx, c)
	if err != nil {
		return Outcome{State: FoundExists}, fmt.Errorf("resolve overwrite: %w", err)
	}
	logger.Info("filename collision resolved",
		logging.String(logging.FieldLabel, c.Label),
		logging.String(logging.FieldKey, c.Key),
		logging.String(logging.FieldDecision, decision.String()),
	)

	out := Outcome{State: Resolved, Decision: decision}
	switch decision {
	case Overwrite:
		if err := remove(c.Existing); err != nil && !errors.Is(err, fs.ErrNotExist) {
			logging.WarnWithContext(logger, "failed to remove superseded file", "file_unlink_failed",
				logging.String(logging.FieldFilename, c.Existing),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "remove the file manually"),
				logging.String(logging.FieldImpact, "old file left on disk; index points at the new file"),
			)
		} else {
			out.OldRemoved = true
		}
		return out, nil
	case Skip:
		return out, nil
	case Cancel:
		return out, ErrCancelled
	default:
		return out, fmt.Errorf("resolver returned %s", decision)
	}
}
