package filename_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"librarian/internal/filename"
	"librarian/internal/logging"
)

var generated = regexp.MustCompile(`^uniform-data_[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}\.npy$`)

func TestGenerateShape(t *testing.T) {
	dir := t.TempDir()
	path, err := filename.Generate("uniform data", dir, ".npy", "")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if filepath.Dir(path) != dir {
		t.Fatalf("unexpected directory %q", filepath.Dir(path))
	}
	if !generated.MatchString(filepath.Base(path)) {
		t.Fatalf("unexpected file name %q", filepath.Base(path))
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("Generate must not create the file")
	}
}

func TestGenerateIsUnique(t *testing.T) {
	dir := t.TempDir()
	seen := make(map[string]struct{})
	for i := 0; i < 500; i++ {
		path, err := filename.Generate("x", dir, "txt", "")
		if err != nil {
			t.Fatalf("Generate: %v", err)
		}
		if _, dup := seen[path]; dup {
			t.Fatalf("duplicate path %q", path)
		}
		seen[path] = struct{}{}
	}
}

func TestGenerateCreatesNestedFolder(t *testing.T) {
	dir := t.TempDir()
	path, err := filename.Generate("plot", dir, "png", "figs/2024")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	nested := filepath.Join(dir, "figs", "2024")
	if filepath.Dir(path) != nested {
		t.Fatalf("expected path under %q, got %q", nested, path)
	}
	if info, err := os.Stat(nested); err != nil || !info.IsDir() {
		t.Fatalf("nested folder not created: %v", err)
	}
}

func TestGenerateRejectsEscapingNestedFolder(t *testing.T) {
	if _, err := filename.Generate("x", t.TempDir(), "txt", "../outside"); err == nil {
		t.Fatal("expected error for nested folder outside the catalog")
	}
}

func TestCheckRecognized(t *testing.T) {
	known := []string{"png", "pdf"}

	ok, err := filename.CheckRecognized("png", known, "extension", filename.ActionError, nil)
	if !ok || err != nil {
		t.Fatalf("known value rejected: %v %v", ok, err)
	}

	ok, err = filename.CheckRecognized("anything", nil, "extension", filename.ActionError, nil)
	if !ok || err != nil {
		t.Fatalf("empty vocabulary must accept everything: %v %v", ok, err)
	}

	ok, err = filename.CheckRecognized("svg", known, "extension", filename.ActionIgnore, nil)
	if ok || err != nil {
		t.Fatalf("ignore: got %v %v", ok, err)
	}

	_, err = filename.CheckRecognized("svg", known, "extension", filename.ActionError, nil)
	var uerr *filename.UnrecognizedValueError
	if !errors.As(err, &uerr) || !errors.Is(err, filename.ErrUnrecognized) {
		t.Fatalf("expected UnrecognizedValueError, got %v", err)
	}
	if uerr.Value != "svg" || uerr.What != "extension" {
		t.Fatalf("unexpected error fields %+v", uerr)
	}
}

func TestCheckRecognizedWarnLogs(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", Writer: &buf})
	if err != nil {
		t.Fatalf("logging.New: %v", err)
	}
	ok, err := filename.CheckRecognized("raw", []string{"plot"}, "label", filename.ActionWarn, logger)
	if ok || err != nil {
		t.Fatalf("warn: got %v %v", ok, err)
	}
	if !strings.Contains(buf.String(), "unrecognized label") || !strings.Contains(buf.String(), "label=raw") {
		t.Fatalf("expected warning, got %q", buf.String())
	}
}

func TestParseAction(t *testing.T) {
	for in, want := range map[string]filename.Action{
		"ignore": filename.ActionIgnore, "WARN": filename.ActionWarn, "": filename.ActionWarn, "error": filename.ActionError,
	} {
		got, err := filename.ParseAction(in)
		if err != nil || got != want {
			t.Errorf("ParseAction(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := filename.ParseAction("loud"); err == nil {
		t.Fatal("expected error")
	}
}

func TestNormalizeExtension(t *testing.T) {
	for in, want := range map[string]string{".png": "png", "..tar": "tar", " csv ": "csv", "": ""} {
		if got := filename.NormalizeExtension(in); got != want {
			t.Errorf("NormalizeExtension(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSanitizeLabel(t *testing.T) {
	for in, want := range map[string]string{
		"uniform data": "uniform-data",
		"../escape":    "-escape",
		"a/b\\c":       "a-b-c",
		"what?":        "what",
		" ":            "entry",
		"..":           "entry",
	} {
		if got := filename.SanitizeLabel(in); got != want {
			t.Errorf("SanitizeLabel(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestGenerateKeepsSlashedLabelInsideDir(t *testing.T) {
	dir := t.TempDir()
	path, err := filename.Generate("runs/2024", dir, "csv", "")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if filepath.Dir(path) != dir || !strings.HasPrefix(filepath.Base(path), "runs-2024_") {
		t.Fatalf("unexpected path %s", path)
	}
}
