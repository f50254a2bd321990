package catalogwatch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"librarian/internal/logging"
)

const (
	defaultDebounce = 200 * time.Millisecond
	tickInterval    = 50 * time.Millisecond
)

// Change is emitted once a burst of events on the document settles.
type Change struct {
	Path string
	// Removed is set when the document no longer exists at Path.
	Removed bool
	At      time.Time
}

// Stats counts watcher activity.
type Stats struct {
	Events  int
	Changes int
	Errors  int
}

// Options configure New.
type Options struct {
	Debounce time.Duration
	Logger   *slog.Logger
}

// Watcher follows a single catalog document.
type Watcher struct {
	mu       sync.Mutex
	watcher  *fsnotify.Watcher
	doc      string
	debounce time.Duration
	logger   *slog.Logger

	pending   bool
	removed   bool
	lastEvent time.Time

	changes chan Change
	stopCh  chan struct{}
	doneCh  chan struct{}
	running bool
	stats   Stats
}

// New prepares a watcher for the document at path. Nothing is watched until
// Start.
func New(path string, opts Options) (*Watcher, error) {
	doc, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve catalog path: %w", err)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Watcher{
		watcher:  fw,
		doc:      doc,
		debounce: debounce,
		logger:   logging.NewComponentLogger(logger, "catalogwatch").With(logging.String("path", doc)),
		changes:  make(chan Change, 1),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Changes delivers settled changes. It is closed when the watcher stops.
func (w *Watcher) Changes() <-chan Change { return w.changes }

// Start begins watching the document directory.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	if err := w.watcher.Add(filepath.Dir(w.doc)); err != nil {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		return fmt.Errorf("watch %s: %w", filepath.Dir(w.doc), err)
	}
	w.logger.Debug("watching catalog")

	go w.run(ctx)
	return nil
}

// Stop ends the watch and waits for the event loop to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	if err := w.watcher.Close(); err != nil {
		w.logger.Warn("closing watcher failed", logging.Error(err))
	}
}

// Stats returns a snapshot of the counters.
func (w *Watcher) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)
	defer close(w.changes)

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.mu.Lock()
			w.stats.Errors++
			w.mu.Unlock()
			logging.WarnWithContext(w.logger, "watch error", "watch_error",
				logging.Error(err),
				logging.String(logging.FieldImpact, "a catalog change may go unreported"),
			)
		case <-ticker.C:
			if change, ok := w.settled(); ok {
				select {
				case w.changes <- change:
				case <-ctx.Done():
					return
				case <-w.stopCh:
					return
				}
			}
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != w.doc {
		return
	}
	var removed bool
	switch {
	case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		removed = true
	default:
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.stats.Events++
	w.pending = true
	w.removed = removed
	w.lastEvent = time.Now()
}

func (w *Watcher) settled() (Change, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.pending || time.Since(w.lastEvent) < w.debounce {
		return Change{}, false
	}
	w.pending = false
	w.stats.Changes++
	return Change{Path: w.doc, Removed: w.removed, At: w.lastEvent}, true
}
