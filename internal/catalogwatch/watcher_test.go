package catalogwatch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"librarian/internal/catalog"
	"librarian/internal/testsupport"
)

func waitChange(t *testing.T, w *Watcher) Change {
	t.Helper()
	select {
	case change, ok := <-w.Changes():
		if !ok {
			t.Fatal("changes channel closed")
		}
		return change
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for change")
	}
	return Change{}
}

func TestWatcherReportsExternalSave(t *testing.T) {
	dir := t.TempDir()
	owner := testsupport.MustOpenCatalog(t, testsupport.WithDir(dir), testsupport.WithSchema(testsupport.IntSchema(t, "n")))

	w, err := New(owner.Path(), Options{Debounce: 20 * time.Millisecond})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	other := testsupport.MustOpenCatalog(t, testsupport.WithDir(dir), testsupport.WithCatalogOptions(func(o *catalog.Options) {
		o.LoadMode = catalog.LoadRequired
	}))
	testsupport.MintFile(t, other, "sample", map[string]any{"n": 1}, "x")

	change := waitChange(t, w)
	if change.Path != owner.Path() || change.Removed {
		t.Fatalf("unexpected change %+v", change)
	}
	if stats := w.Stats(); stats.Changes < 1 || stats.Events < 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	doc := filepath.Join(dir, "test"+catalog.FileExtension)
	testsupport.WriteFile(t, doc, "")

	w, err := New(doc, Options{Debounce: 10 * time.Millisecond})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	testsupport.WriteFile(t, filepath.Join(dir, "unrelated.txt"), "x")
	testsupport.WriteFile(t, catalog.LockPath(doc), "")

	select {
	case change := <-w.Changes():
		t.Fatalf("unexpected change %+v", change)
	case <-time.After(200 * time.Millisecond):
	}

	if err := os.Remove(doc); err != nil {
		t.Fatal(err)
	}
	if change := waitChange(t, w); !change.Removed {
		t.Fatalf("expected removal, got %+v", change)
	}
}

func TestStopClosesChanges(t *testing.T) {
	doc := filepath.Join(t.TempDir(), "test"+catalog.FileExtension)
	w, err := New(doc, Options{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	w.Stop()
	w.Stop()
	if _, ok := <-w.Changes(); ok {
		t.Fatal("expected closed channel")
	}
}

func TestStartFailsForMissingDirectory(t *testing.T) {
	w, err := New(filepath.Join(t.TempDir(), "missing", "test.yaml"), Options{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := w.Start(context.Background()); err == nil {
		w.Stop()
		t.Fatal("expected error watching a missing directory")
	}
}

func TestFollowReloadsCatalog(t *testing.T) {
	dir := t.TempDir()
	follower := testsupport.MustOpenCatalog(t, testsupport.WithDir(dir), testsupport.WithSchema(testsupport.IntSchema(t, "n")))
	writer := testsupport.MustOpenCatalog(t, testsupport.WithDir(dir), testsupport.WithCatalogOptions(func(o *catalog.Options) {
		o.LoadMode = catalog.LoadRequired
	}))

	ctx, cancel := context.WithCancel(context.Background())
	reloads := make(chan error, 16)
	done := make(chan error, 1)
	go func() {
		done <- Follow(ctx, follower, Options{Debounce: 20 * time.Millisecond}, func(_ Change, err error) {
			reloads <- err
		})
	}()

	// The watch starts asynchronously, so keep writing until a reload lands.
	var reloaded bool
	for n := 0; n < 50 && !reloaded; n++ {
		testsupport.MintFile(t, writer, "sample", map[string]any{"n": n}, "x")
		select {
		case err := <-reloads:
			if err != nil {
				t.Fatalf("reload: %v", err)
			}
			reloaded = true
		case <-time.After(100 * time.Millisecond):
		}
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Follow: %v", err)
	}
	if !reloaded {
		t.Fatal("no reload observed")
	}
	if follower.Len() == 0 {
		t.Fatal("follower did not pick up external entries")
	}
}
