package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"librarian/internal/api"
)

func TestCatalogLifecycle(t *testing.T) {
	env := setupCLITestEnv(t)

	out := env.mustRun(t, "init", "-p", "n:int", "-p", "method:str=euler", "--label", "sample", "--ext", "txt", "-d", "demo")
	requireContains(t, out, "Created catalog default")

	path := strings.TrimSpace(env.mustRun(t, "new", "sample", "n=1", "--ext", "txt"))
	if !strings.HasPrefix(path, filepath.Join(env.catalogRoot, "default", "sample_")) || !strings.HasSuffix(path, ".txt") {
		t.Fatalf("unexpected minted path %q", path)
	}
	if got := strings.TrimSpace(env.mustRun(t, "get", "sample", "n=1")); got != path {
		t.Fatalf("get = %q, want %q", got, path)
	}
	if got := strings.TrimSpace(env.mustRun(t, "get", "--scan", "sample", "n=1", "method=euler")); got != path {
		t.Fatalf("get --scan = %q, want %q", got, path)
	}

	listing := env.mustRun(t, "list")
	requireContains(t, listing, "sample")
	requireContains(t, listing, "(missing)")

	// Nothing wrote the first path, so its entry is stale and gets replaced.
	replaced := strings.TrimSpace(env.mustRun(t, "new", "sample", "n=1", "--ext", "txt"))
	if replaced == "" || replaced == path {
		t.Fatalf("stale entry not replaced with a fresh path: %q", replaced)
	}
	if err := os.WriteFile(replaced, []byte("data"), 0o644); err != nil {
		t.Fatalf("write minted file: %v", err)
	}

	again, stderr, err := env.run(t, "new", "sample", "n=1", "--ext", "txt")
	if err != nil {
		t.Fatalf("third new: %v", err)
	}
	requireContains(t, stderr, "Skipped")
	if strings.TrimSpace(again) != "" {
		t.Fatalf("skipped new still printed a path: %q", again)
	}

	if _, _, err := env.run(t, "get", "sample", "n=2"); err == nil {
		t.Fatal("expected lookup failure for unknown parameters")
	}

	var listed api.EntryListResponse
	if err := json.Unmarshal([]byte(env.mustRun(t, "list", "--json")), &listed); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(listed.Items) != 1 {
		t.Fatalf("expected one entry, got %+v", listed.Items)
	}
	item := listed.Items[0]
	if item.Number != 1 || item.Label != "sample" || item.Filename != replaced || item.Key != "method : euler | n : 1" {
		t.Fatalf("unexpected entry %+v", item)
	}
	if !item.Exists {
		t.Fatal("written file reported as missing")
	}

	info := env.mustRun(t, "info")
	requireContains(t, info, "Description: demo")
	requireContains(t, info, "(required)")

	requireContains(t, env.mustRun(t, "remove", "1", "7"), "Entry 1 removed")
	requireContains(t, env.mustRun(t, "list"), "No entries")
}

func TestInitRefusesExistingCatalog(t *testing.T) {
	env := setupCLITestEnv(t)
	env.mustRun(t, "init")
	if _, _, err := env.run(t, "init"); err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Fatalf("expected already-exists error, got %v", err)
	}
	if _, _, err := env.run(t, "--catalog", "missing", "list"); err == nil {
		t.Fatal("expected error listing a catalog that was never created")
	}
}

func TestAddImportAndRemoveByFile(t *testing.T) {
	env := setupCLITestEnv(t)
	env.mustRun(t, "init", "--lenient")

	src := filepath.Join(env.baseDir, "external.dat")
	if err := os.WriteFile(src, []byte("payload"), 0o644); err != nil {
		t.Fatal(err)
	}
	requireContains(t, env.mustRun(t, "add", src, "raw", "run=1"), "Added")

	imported := strings.TrimSpace(env.mustRun(t, "import", src, "copy", "run=1"))
	data, err := os.ReadFile(imported)
	if err != nil || string(data) != "payload" {
		t.Fatalf("imported copy = %q, %v", data, err)
	}

	requireContains(t, env.mustRun(t, "remove", "--file", src, "--keep-file"), "Removed")
	if _, err := os.Stat(src); err != nil {
		t.Fatalf("--keep-file deleted the source: %v", err)
	}
	requireContains(t, env.mustRun(t, "remove", "--label", "copy", "run=1"), "Removed copy entry")
	if _, err := os.Stat(imported); !os.IsNotExist(err) {
		t.Fatalf("imported file still present: %v", err)
	}
}

func TestParamsMigration(t *testing.T) {
	env := setupCLITestEnv(t)
	env.mustRun(t, "init", "-p", "n:int")
	path := strings.TrimSpace(env.mustRun(t, "new", "sample", "n=2"))

	if _, _, err := env.run(t, "params", "add", "scale:float"); err == nil {
		t.Fatal("expected params add without default to fail")
	}
	env.mustRun(t, "params", "add", "scale:float=1.5")
	env.mustRun(t, "params", "rename", "n", "count")

	if got := strings.TrimSpace(env.mustRun(t, "get", "sample", "count=2", "scale=1.5")); got != path {
		t.Fatalf("get after migration = %q, want %q", got, path)
	}
	listing := env.mustRun(t, "params", "list")
	requireContains(t, listing, "count")
	requireContains(t, listing, "scale")

	env.mustRun(t, "params", "remove", "scale")
	if got := strings.TrimSpace(env.mustRun(t, "get", "sample", "count=2")); got != path {
		t.Fatalf("get after remove = %q, want %q", got, path)
	}
}

func TestClosestAndPurge(t *testing.T) {
	env := setupCLITestEnv(t)
	env.mustRun(t, "init", "-p", "n:int", "-p", "m:int")
	env.mustRun(t, "new", "a", "n=5", "m=2")
	env.mustRun(t, "new", "a", "n=1", "m=1")

	var view api.ClosestView
	if err := json.Unmarshal([]byte(env.mustRun(t, "closest", "n=5", "m=1", "--json")), &view); err != nil {
		t.Fatalf("decode closest: %v", err)
	}
	if view.Agreement != 1 || view.Perfect || len(view.Matches) != 2 {
		t.Fatalf("unexpected closest view %+v", view)
	}
	requireContains(t, env.mustRun(t, "closest", "n=5", "m=2"), "Perfect match")

	if _, _, err := env.run(t, "purge"); err == nil {
		t.Fatal("expected unfiltered purge to require --all")
	}
	requireContains(t, env.mustRun(t, "purge", "--where", "n=5"), "Purged 1 entries")
	requireContains(t, env.mustRun(t, "purge", "--all"), "Purged 1 entries")
}

func TestVerifyAndDoctor(t *testing.T) {
	env := setupCLITestEnv(t)
	env.mustRun(t, "init")

	requireContains(t, env.mustRun(t, "verify"), "[OK]")
	out := env.mustRun(t, "doctor")
	requireContains(t, out, "== Librarian Health ==")
	requireContains(t, out, "Catalog default:")
}

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)
	env.mustRun(t, "init")

	out := env.mustRun(t, "config", "validate")
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, env.catalogRoot)
	requireContains(t, out, "Overwrite policy:")
	requireContains(t, out, "[INFO] skip")
	requireContains(t, out, "[INFO] disabled")

	var report configReport
	if err := json.Unmarshal([]byte(env.mustRun(t, "config", "validate", "--json")), &report); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if report.Overwrite != "skip" || report.PromptDefault != "" || report.LoadAttempts != 2 || report.LogFile != "" {
		t.Fatalf("unexpected report %+v", report)
	}
	if len(report.Catalogs) != 1 || report.Catalogs[0] != "default" {
		t.Fatalf("catalogs = %v, want [default]", report.Catalogs)
	}

	target := filepath.Join(t.TempDir(), "config.toml")
	out = env.mustRun(t, "config", "init", "--path", target)
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}
	if _, _, err := env.run(t, "config", "init", "--path", target); err == nil {
		t.Fatal("expected refusal to overwrite existing config")
	}

	sample := env.mustRun(t, "--config", target, "config", "validate")
	requireContains(t, sample, "ask (skip after 10s without an answer)")
	requireContains(t, sample, "Configuration valid")
}
