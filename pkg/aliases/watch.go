package aliases

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/fsnotify.v1"

	"github.com/coolbeans/lawlinks/pkg/citation"
	"github.com/coolbeans/lawlinks/pkg/logging"
)

// DefaultDebounce is how long the watcher waits for a burst of file events
// to settle before reloading.
const DefaultDebounce = 250 * time.Millisecond

// Watcher reloads an alias file when it changes and hands the fresh entries
// to a callback. The directory is watched rather than the file so that
// editors which replace the file on save are handled.
type Watcher struct {
	path     string
	debounce time.Duration
	onReload func([]citation.AliasEntry)
	logger   logging.Logger

	watcher  *fsnotify.Watcher
	stopChan chan struct{}
	done     chan struct{}

	// mu also serialises reloads, so Stop waits for one already running.
	mu      sync.Mutex
	timer   *time.Timer
	stopped bool
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounce sets the settle delay between the last event and the reload.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) { w.debounce = d }
}

// WithWatcherLogger sets the logger for reload failures.
func WithWatcherLogger(l logging.Logger) WatcherOption {
	return func(w *Watcher) { w.logger = l }
}

// NewWatcher creates a watcher for the alias file at path.
func NewWatcher(path string, onReload func([]citation.AliasEntry), opts ...WatcherOption) *Watcher {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	w := &Watcher{
		path:     filepath.Clean(path),
		debounce: DefaultDebounce,
		onReload: onReload,
		logger:   logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start begins watching. It returns once the watch is registered.
func (w *Watcher) Start() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}

	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		watcher.Close()
		return fmt.Errorf("watching %s: %w", w.path, err)
	}

	w.watcher = watcher
	w.stopChan = make(chan struct{})
	w.done = make(chan struct{})
	go w.watchLoop()

	return nil
}

// Stop ends the watch and waits for the event loop to exit. A pending reload
// is cancelled and one already in progress finishes first; onReload is never
// called after Stop returns.
func (w *Watcher) Stop() {
	w.mu.Lock()
	w.stopped = true
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()

	if w.stopChan == nil {
		return
	}
	close(w.stopChan)
	w.watcher.Close()
	<-w.done
	w.stopChan = nil
}

func (w *Watcher) watchLoop() {
	defer close(w.done)
	for {
		select {
		case <-w.stopChan:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0 {
				w.schedule()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("alias watcher error", logging.Err(err))
		}
	}
}

// schedule (re)arms the debounce timer.
func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.reload)
}

func (w *Watcher) reload() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}

	entries, err := LoadFile(w.path)
	if err != nil {
		// Keep serving the previous index; the next write retries.
		w.logger.Warn("alias reload failed", logging.String("path", w.path), logging.Err(err))
		return
	}
	w.logger.Info("alias file changed", logging.String("path", w.path), logging.Int("entries", len(entries)))
	w.onReload(entries)
}
