package conflict

import (
	"errors"
	"fmt"
	"strings"
)

// Decision is the resolution of a filename collision.
type Decision int

const (
	// Undecided is the zero Decision. Resolvers never return it.
	Undecided Decision = iota
	Overwrite
	Skip
	Cancel
)

func (d Decision) String() string {
	switch d {
	case Overwrite:
		return "overwrite"
	case Skip:
		return "skip"
	case Cancel:
		return "cancel"
	default:
		return "undecided"
	}
}

// ParseDecision accepts full names and single-letter shortcuts.
func ParseDecision(s string) (Decision, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "overwrite", "o":
		return Overwrite, nil
	case "skip", "s":
		return Skip, nil
	case "cancel", "c":
		return Cancel, nil
	}
	return Undecided, fmt.Errorf("unknown overwrite decision %q", s)
}

// State tracks progress through a single collision check.
type State int

const (
	Unchecked State = iota
	FoundExists
	Resolved
)

func (s State) String() string {
	switch s {
	case FoundExists:
		return "found-exists"
	case Resolved:
		return "resolved"
	default:
		return "unchecked"
	}
}

// ErrCancelled aborts the operation that hit the collision.
var ErrCancelled = errors.New("cancelled by overwrite decision")
