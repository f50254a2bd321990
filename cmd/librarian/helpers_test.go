package main

import (
	"fmt"
	"io"
	"strings"
	"testing"

	"librarian/internal/schema"
)

func TestParseParamSpec(t *testing.T) {
	spec, err := parseParamSpec("dt:float=0.5")
	if err != nil {
		t.Fatalf("parseParamSpec: %v", err)
	}
	if spec.Name != "dt" || spec.Kind != schema.KindFloat || spec.Default != "0.5" {
		t.Fatalf("unexpected spec %+v", spec)
	}
	spec, err = parseParamSpec("n:int")
	if err != nil || spec.Default != nil {
		t.Fatalf("required spec = %+v, %v", spec, err)
	}
	for _, bad := range []string{"n", ":int", "n:complex"} {
		if _, err := parseParamSpec(bad); err == nil {
			t.Fatalf("parseParamSpec(%q) accepted", bad)
		}
	}
}

func TestRenderStatusLineNoColor(t *testing.T) {
	got := renderStatusLine("Catalog root", statusError, "missing", false)
	want := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, "Catalog root:", "[ERROR] missing")
	if got != want {
		t.Fatalf("renderStatusLine mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestRenderStatusLineWithColor(t *testing.T) {
	got := renderStatusLine("Catalog", statusOK, "", true)
	if !strings.HasPrefix(got, ansiGreen) || !strings.HasSuffix(got, ansiReset) {
		t.Fatalf("expected green wrapping, got %q", got)
	}
}

func TestShouldColorizeNonFile(t *testing.T) {
	if shouldColorize(io.Discard) {
		t.Fatalf("expected non-file writer to disable color")
	}
}

func TestRenderTablePadsShortRows(t *testing.T) {
	out := renderTable([]string{"#", "Label"}, [][]string{{"1"}}, []columnAlignment{alignRight})
	// go-pretty upper-cases headers by default.
	if !strings.Contains(out, "LABEL") || !strings.Contains(out, "1") {
		t.Fatalf("unexpected table %q", out)
	}
	if renderTable(nil, nil, nil) != "" {
		t.Fatal("expected empty output without headers")
	}
}
