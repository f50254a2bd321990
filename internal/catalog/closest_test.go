package catalog_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"librarian/internal/catalog"
	"librarian/internal/testsupport"
)

func TestClosestParamsKeepsTies(t *testing.T) {
	c := testsupport.MustOpenCatalog(t, testsupport.WithSchema(testsupport.IntSchema(t, "n", "m")))
	a := testsupport.MintFile(t, c, "sample", map[string]any{"n": 5, "m": 2}, "x")
	b := testsupport.MintFile(t, c, "sample", map[string]any{"n": 1, "m": 1}, "x")
	testsupport.MintFile(t, c, "sample", map[string]any{"n": 7, "m": 7}, "x")

	got, err := c.ClosestParams(map[string]any{"n": 5, "m": 1}, catalog.Filter{})
	if err != nil {
		t.Fatalf("ClosestParams: %v", err)
	}
	if got.Agreement != 1 {
		t.Fatalf("agreement = %d, want 1", got.Agreement)
	}
	if diff := cmp.Diff([]string{a, b}, got.Filenames); diff != "" {
		t.Fatalf("filenames (-want +got):\n%s", diff)
	}
	if len(got.Labels) != 2 || len(got.Params) != 2 {
		t.Fatalf("views not aligned: %+v", got)
	}
}

func TestClosestParamsPerfectMatchWins(t *testing.T) {
	c := testsupport.MustOpenCatalog(t, testsupport.WithSchema(testsupport.IntSchema(t, "n", "m")))
	testsupport.MintFile(t, c, "sample", map[string]any{"n": 5, "m": 2}, "x")
	want := testsupport.MintFile(t, c, "sample", map[string]any{"n": 5, "m": 1}, "x")

	// String input is cast to the declared int kind.
	got, err := c.ClosestParams(map[string]any{"n": "5", "m": 1}, catalog.Filter{})
	if err != nil {
		t.Fatalf("ClosestParams: %v", err)
	}
	if got.Agreement != catalog.PerfectMatch {
		t.Fatalf("agreement = %d, want perfect", got.Agreement)
	}
	if diff := cmp.Diff([]string{want}, got.Filenames); diff != "" {
		t.Fatalf("filenames (-want +got):\n%s", diff)
	}
}

func TestClosestParamsFilterAndEmpty(t *testing.T) {
	c := testsupport.MustOpenCatalog(t, testsupport.WithSchema(testsupport.IntSchema(t, "n")))

	got, err := c.ClosestParams(map[string]any{"n": 1}, catalog.Filter{})
	if err != nil {
		t.Fatalf("ClosestParams on empty catalog: %v", err)
	}
	if got.Agreement != 0 || len(got.Filenames) != 0 {
		t.Fatalf("expected empty result, got %+v", got)
	}

	testsupport.MintFile(t, c, "a", map[string]any{"n": 1}, "x")
	b := testsupport.MintFile(t, c, "b", map[string]any{"n": 2}, "x")

	got, err = c.ClosestParams(map[string]any{"n": 1}, catalog.Filter{Labels: []string{"b"}})
	if err != nil {
		t.Fatalf("ClosestParams: %v", err)
	}
	if got.Agreement != 0 {
		t.Fatalf("agreement = %d, want 0", got.Agreement)
	}
	if diff := cmp.Diff([]string{b}, got.Filenames); diff != "" {
		t.Fatalf("filenames (-want +got):\n%s", diff)
	}
}
