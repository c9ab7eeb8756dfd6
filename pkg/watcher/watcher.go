package watcher

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/vanderheijden86/categorytree/pkg/logging"
)

// Watcher reports changes to a single file. It watches the parent directory
// so editors and stores that replace the file through a rename are still seen.
type Watcher struct {
	path      string
	debouncer *Debouncer
	logger    *zap.SugaredLogger

	mu      sync.Mutex
	fs      *fsnotify.Watcher
	changed chan struct{}
	stop    chan struct{}
	done    chan struct{}
	running bool
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounceDuration sets the debounce window.
func WithDebounceDuration(d time.Duration) Option {
	return func(w *Watcher) { w.debouncer = NewDebouncer(d) }
}

// WithLogger overrides the logger.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(w *Watcher) { w.logger = l }
}

// NewWatcher returns a watcher for path. Call Start to begin watching.
func NewWatcher(path string, opts ...Option) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}
	w := &Watcher{
		path:      abs,
		debouncer: NewDebouncer(0),
		logger:    logging.Named("watcher"),
		changed:   make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Path returns the watched file.
func (w *Watcher) Path() string { return w.path }

// Changed delivers one value per debounced burst of changes. Bursts that
// arrive while a previous value is unread are folded into it.
func (w *Watcher) Changed() <-chan struct{} {
	return w.changed
}

// Start begins watching. It is idempotent.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return nil
	}
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	if err := fs.Add(filepath.Dir(w.path)); err != nil {
		fs.Close()
		return fmt.Errorf("watch %s: %w", filepath.Dir(w.path), err)
	}
	w.fs = fs
	w.stop = make(chan struct{})
	w.done = make(chan struct{})
	w.running = true
	go w.loop(fs, w.stop, w.done)
	w.logger.Debugw("watching", "path", w.path)
	return nil
}

// Stop ends watching and cancels any pending notification. It is idempotent.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	close(w.stop)
	done := w.done
	fs := w.fs
	w.mu.Unlock()

	fs.Close()
	<-done
	w.debouncer.Cancel()
}

func (w *Watcher) loop(fs *fsnotify.Watcher, stop, done chan struct{}) {
	defer close(done)
	for {
		select {
		case <-stop:
			return
		case event, ok := <-fs.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			w.logger.Debugw("file changed", "file", event.Name, "op", event.Op.String())
			w.debouncer.Trigger(w.notify)
		case err, ok := <-fs.Errors:
			if !ok {
				return
			}
			// Errors are logged but don't stop the watcher
			w.logger.Warnw("file watcher error", "error", err)
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != w.path {
		return false
	}
	return event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) != 0
}

func (w *Watcher) notify() {
	select {
	case w.changed <- struct{}{}:
	default:
	}
}
