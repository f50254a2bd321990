package api

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"librarian/internal/catalog"
	"librarian/internal/conflict"
	"librarian/internal/schema"
	"librarian/internal/testsupport"
)

func TestParseAssignmentsReadsNaturalKinds(t *testing.T) {
	got, err := ParseAssignments([]string{"n=10", "dt=2.5", "smooth=true", `mode="10"`, "tags=[a, b]", "method=euler", "note=a: b", "empty="})
	if err != nil {
		t.Fatalf("ParseAssignments: %v", err)
	}
	want := map[string]any{
		"n":      10,
		"dt":     2.5,
		"smooth": true,
		"mode":   "10",
		"tags":   []any{"a", "b"},
		"method": "euler",
		"note":   "a: b",
		"empty":  "",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("assignments (-want +got):\n%s", diff)
	}
}

func TestParseAssignmentsRejectsMalformed(t *testing.T) {
	for _, args := range [][]string{{"n"}, {"=3"}, {"n=1", "n=2"}} {
		if _, err := ParseAssignments(args); !errors.Is(err, ErrInvalidAssignment) {
			t.Fatalf("ParseAssignments(%v) err = %v, want ErrInvalidAssignment", args, err)
		}
	}
}

func TestParseFilterCollectsRepeatedNames(t *testing.T) {
	f, err := ParseFilter([]string{"a", " ", "b"}, []string{"n=1", "n=2", "m=x"})
	if err != nil {
		t.Fatalf("ParseFilter: %v", err)
	}
	want := catalog.Filter{
		Labels: []string{"a", "b"},
		Params: map[string][]any{"n": {1, 2}, "m": {"x"}},
	}
	if diff := cmp.Diff(want, f); diff != "" {
		t.Fatalf("filter (-want +got):\n%s", diff)
	}
}

func TestResolverFromConfig(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithOverwrite("overwrite"))
	r, err := ResolverFromConfig(cfg, nil, nil)
	if err != nil {
		t.Fatalf("ResolverFromConfig: %v", err)
	}
	if got, _ := r.Resolve(context.Background(), conflict.Conflict{}); got != conflict.Overwrite {
		t.Fatalf("fixed policy resolved to %s", got)
	}

	cfg = testsupport.NewConfig(t)
	cfg.Catalog.PromptDefault = "cancel"
	r, err = ResolverFromConfig(cfg, strings.NewReader(""), &strings.Builder{})
	if err != nil {
		t.Fatalf("ResolverFromConfig: %v", err)
	}
	prompt, ok := r.(*conflict.Interactive)
	if !ok {
		t.Fatalf("ask policy built %T", r)
	}
	if prompt.Default != conflict.Cancel || prompt.Timeout != 10*time.Second {
		t.Fatalf("unexpected prompt %+v", prompt)
	}
}

func TestOpenCatalogAppliesConfig(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithOverwrite("skip"), testsupport.WithRecognition("error", "ignore"))
	ctx := context.Background()

	c, err := OpenCatalog(ctx, OpenCatalogRequest{
		Config:           cfg,
		Name:             "runs",
		RecognizedLabels: []string{"trace"},
	})
	if err != nil {
		t.Fatalf("OpenCatalog: %v", err)
	}
	if c.Path() != cfg.CatalogDir("runs")+"/runs.yaml" {
		t.Fatalf("catalog placed at %s", c.Path())
	}
	if !c.Schema().Strict() {
		t.Fatal("strict setting not applied")
	}
	if _, _, err := c.NewFilename(ctx, "other", nil, "bin", ""); err == nil {
		t.Fatal("unrecognized label accepted despite error action")
	}
	if _, ok, err := c.NewFilename(ctx, "trace", nil, "bin", ""); err != nil || !ok {
		t.Fatalf("NewFilename = %v, %v", ok, err)
	}

	_, err = OpenCatalog(ctx, OpenCatalogRequest{Config: cfg, Name: "absent", Mode: catalog.LoadRequired})
	if !errors.Is(err, catalog.ErrPersistence) {
		t.Fatalf("expected persistence error for missing catalog, got %v", err)
	}
	if _, err := OpenCatalog(ctx, OpenCatalogRequest{Name: "x"}); err == nil {
		t.Fatal("expected error without configuration")
	}
}

func TestFromCatalogAndEntries(t *testing.T) {
	s := schema.New(true)
	if err := s.Declare("n", schema.KindInt, nil); err != nil {
		t.Fatal(err)
	}
	if err := s.Declare("tags", schema.KindStringList, "a,b"); err != nil {
		t.Fatal(err)
	}
	c := testsupport.MustOpenCatalog(t, testsupport.WithSchema(s))
	path := testsupport.MintFile(t, c, "sample", map[string]any{"n": 3}, "x")

	info := FromCatalog(c)
	if info.Name != "test" || info.Entries != 1 || !info.Strict {
		t.Fatalf("unexpected info %+v", info)
	}
	wantParams := []ParameterView{
		{Name: "n", Kind: "int", Required: true},
		{Name: "tags", Kind: "list", Default: []string{"a", "b"}},
	}
	if diff := cmp.Diff(wantParams, info.Parameters); diff != "" {
		t.Fatalf("parameters (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"sample"}, info.Labels); diff != "" {
		t.Fatalf("labels (-want +got):\n%s", diff)
	}

	entries, err := c.Entries(catalog.Filter{})
	if err != nil {
		t.Fatal(err)
	}
	views := FromEntries(entries)
	if len(views) != 1 || views[0].Number != 1 || views[0].Filename != path || !views[0].Exists {
		t.Fatalf("unexpected views %+v", views)
	}
	if views[0].Key != "n : 3 | tags : [a, b]" {
		t.Fatalf("key = %q", views[0].Key)
	}
	if ParseViewTime(views[0].AddedAt).IsZero() {
		t.Fatalf("AddedAt %q does not parse", views[0].AddedAt)
	}
}

func TestFromClosest(t *testing.T) {
	view := FromClosest(catalog.Closest{
		Agreement: catalog.PerfectMatch,
		Labels:    []string{"a"},
		Params:    []schema.Params{{"n": schema.Int(1)}},
		Filenames: []string{"/nowhere/a.txt"},
	})
	if !view.Perfect || len(view.Matches) != 1 || view.Matches[0].Exists {
		t.Fatalf("unexpected view %+v", view)
	}
	if empty := FromClosest(catalog.Closest{}); empty.Matches == nil || empty.Perfect {
		t.Fatalf("unexpected empty view %+v", empty)
	}
}

type entryRemoveStub struct {
	entries []catalog.Entry
	removed []string
	errAt   string
}

func (s *entryRemoveStub) Entries(catalog.Filter) ([]catalog.Entry, error) {
	return s.entries, nil
}

func (s *entryRemoveStub) RemoveFile(_ context.Context, req catalog.RemoveRequest) error {
	if req.Filename == s.errAt {
		return errors.New("remove failed")
	}
	for _, done := range s.removed {
		if done == req.Filename {
			return &catalog.NotFoundError{Filename: req.Filename}
		}
	}
	s.removed = append(s.removed, req.Filename)
	return nil
}

func TestRemoveEntriesByNumber(t *testing.T) {
	stub := &entryRemoveStub{entries: []catalog.Entry{{Filename: "/a"}, {Filename: "/b"}, {Filename: "/c"}}}

	result, err := RemoveEntriesByNumber(context.Background(), stub, []int{3, 1, 9, 1}, false)
	if err != nil {
		t.Fatalf("RemoveEntriesByNumber: %v", err)
	}
	if result.RemovedCount != 2 {
		t.Fatalf("RemovedCount = %d, want 2", result.RemovedCount)
	}
	want := []RemoveEntryResult{
		{Number: 3, Filename: "/c", Outcome: RemoveEntryRemoved},
		{Number: 1, Filename: "/a", Outcome: RemoveEntryRemoved},
		{Number: 9, Outcome: RemoveEntryNotFound},
		{Number: 1, Filename: "/a", Outcome: RemoveEntryNotFound},
	}
	if diff := cmp.Diff(want, result.Items); diff != "" {
		t.Fatalf("items (-want +got):\n%s", diff)
	}

	stub = &entryRemoveStub{entries: []catalog.Entry{{Filename: "/a"}}, errAt: "/a"}
	if _, err := RemoveEntriesByNumber(context.Background(), stub, []int{1}, false); err == nil {
		t.Fatal("expected error")
	}
}

func TestSortEntriesNewestFirst(t *testing.T) {
	items := []EntryView{
		{Number: 1, AddedAt: "2024-01-01T10:00:00Z"},
		{Number: 2, AddedAt: "2024-01-02T10:00:00Z"},
		{Number: 3, AddedAt: "2024-01-01T10:00:00Z"},
		{Number: 4},
	}
	sorted := SortEntriesNewestFirst(items)
	var order []int
	for _, item := range sorted {
		order = append(order, item.Number)
	}
	if diff := cmp.Diff([]int{2, 3, 1, 4}, order); diff != "" {
		t.Fatalf("order (-want +got):\n%s", diff)
	}
	if items[0].Number != 1 {
		t.Fatal("input slice was reordered")
	}
}
