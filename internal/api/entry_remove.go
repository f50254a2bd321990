package api

import (
	"context"
	"errors"

	"librarian/internal/catalog"
)

// EntryRemoveService captures catalog operations needed by numbered removal.
type EntryRemoveService interface {
	Entries(f catalog.Filter) ([]catalog.Entry, error)
	RemoveFile(ctx context.Context, req catalog.RemoveRequest) error
}

type RemoveEntryOutcome string

const (
	RemoveEntryRemoved  RemoveEntryOutcome = "removed"
	RemoveEntryNotFound RemoveEntryOutcome = "not_found"
)

type RemoveEntryResult struct {
	Number   int                `json:"number"`
	Filename string             `json:"filename,omitempty"`
	Outcome  RemoveEntryOutcome `json:"outcome"`
}

type RemoveEntriesResult struct {
	RemovedCount int                 `json:"removedCount"`
	Items        []RemoveEntryResult `json:"items"`
}

// RemoveEntriesByNumber removes entries by their list number. Numbers are
// resolved against one listing taken up front, so removing entry 2 does not
// shift what number 3 refers to.
func RemoveEntriesByNumber(ctx context.Context, service EntryRemoveService, numbers []int, keepFiles bool) (RemoveEntriesResult, error) {
	entries, err := service.Entries(catalog.Filter{})
	if err != nil {
		return RemoveEntriesResult{}, err
	}
	result := RemoveEntriesResult{Items: make([]RemoveEntryResult, 0, len(numbers))}
	for _, n := range numbers {
		if n < 1 || n > len(entries) {
			result.Items = append(result.Items, RemoveEntryResult{Number: n, Outcome: RemoveEntryNotFound})
			continue
		}
		path := entries[n-1].Filename
		err := service.RemoveFile(ctx, catalog.RemoveRequest{Filename: path, KeepFile: keepFiles})
		if errors.Is(err, catalog.ErrNotFound) {
			result.Items = append(result.Items, RemoveEntryResult{Number: n, Filename: path, Outcome: RemoveEntryNotFound})
			continue
		}
		if err != nil {
			return RemoveEntriesResult{}, err
		}
		result.RemovedCount++
		result.Items = append(result.Items, RemoveEntryResult{Number: n, Filename: path, Outcome: RemoveEntryRemoved})
	}
	return result, nil
}
