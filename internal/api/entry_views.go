package api

import (
	"sort"
	"time"
)

// SortEntriesNewestFirst orders entry views by AddedAt descending, breaking
// ties by list number descending.
func SortEntriesNewestFirst(items []EntryView) []EntryView {
	if len(items) == 0 {
		return nil
	}
	sorted := make([]EntryView, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		ti := ParseViewTime(sorted[i].AddedAt)
		tj := ParseViewTime(sorted[j].AddedAt)
		if ti.Equal(tj) {
			return sorted[i].Number > sorted[j].Number
		}
		return ti.After(tj)
	})
	return sorted
}

// ParseViewTime parses a view timestamp. Empty or malformed values yield the
// zero time.
func ParseViewTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t
	}
	return time.Time{}
}
