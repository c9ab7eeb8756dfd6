// This file implements the BackgroundWorker that reloads the category source
// off the UI thread.
package ui

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	json "github.com/goccy/go-json"

	"github.com/vanderheijden86/categorytree/pkg/hierarchy"
	"github.com/vanderheijden86/categorytree/pkg/logging"
	"github.com/vanderheijden86/categorytree/pkg/store"
	"github.com/vanderheijden86/categorytree/pkg/watcher"
)

// WorkerState represents the current state of the background worker.
type WorkerState int

const (
	// WorkerIdle means the worker is waiting for file changes.
	WorkerIdle WorkerState = iota
	// WorkerProcessing means the worker is loading a new snapshot.
	WorkerProcessing
	// WorkerStopped means the worker has been stopped.
	WorkerStopped
)

// WorkerError wraps errors with phase and retry context.
type WorkerError struct {
	Phase   string    // "load", "hash"
	Cause   error     // The underlying error
	Time    time.Time // When the error occurred
	Retries int       // Consecutive failures including this one
}

func (e WorkerError) Error() string {
	return fmt.Sprintf("%s failed: %v (retries: %d)", e.Phase, e.Cause, e.Retries)
}

func (e WorkerError) Unwrap() error {
	return e.Cause
}

// Sender delivers messages to the running program. *tea.Program satisfies it.
type Sender interface {
	Send(msg tea.Msg)
}

// Snapshot is one loaded state of the category source.
type Snapshot struct {
	Forest   *hierarchy.Forest
	Hash     string
	LoadedAt time.Time
}

// SnapshotReadyMsg is sent to the UI when a new snapshot is ready.
type SnapshotReadyMsg struct {
	Snapshot *Snapshot
}

// SnapshotErrorMsg is sent to the UI when loading fails.
type SnapshotErrorMsg struct {
	Err         error
	Recoverable bool // True if we expect to recover on next file change
}

// BackgroundWorker owns the file watcher, coalesces change bursts and loads
// snapshots off the UI thread.
type BackgroundWorker struct {
	source        store.Source
	debounceDelay time.Duration
	loadTimeout   time.Duration

	mu       sync.RWMutex
	state    WorkerState
	dirty    bool // a change came in while processing
	snapshot *Snapshot
	started  bool
	lastHash string

	lastError  *WorkerError
	errorCount int

	watcher *watcher.Watcher
	program Sender

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	wg     sync.WaitGroup
}

// WorkerConfig configures the BackgroundWorker.
type WorkerConfig struct {
	Source        store.Source
	DebounceDelay time.Duration
	// Watch enables the file watcher on Source.Path(). Without it the worker
	// only reloads on TriggerRefresh.
	Watch   bool
	Program Sender
}

// NewBackgroundWorker creates a new background worker.
func NewBackgroundWorker(cfg WorkerConfig) (*BackgroundWorker, error) {
	ctx, cancel := context.WithCancel(context.Background())

	if cfg.DebounceDelay == 0 {
		cfg.DebounceDelay = 200 * time.Millisecond
	}

	w := &BackgroundWorker{
		source:        cfg.Source,
		debounceDelay: cfg.DebounceDelay,
		loadTimeout:   30 * time.Second,
		program:       cfg.Program,
		state:         WorkerIdle,
		ctx:           ctx,
		cancel:        cancel,
		done:          make(chan struct{}),
	}

	if cfg.Watch && cfg.Source != nil && cfg.Source.Path() != "" {
		fw, err := watcher.NewWatcher(cfg.Source.Path(),
			watcher.WithDebounceDuration(cfg.DebounceDelay),
			watcher.WithLogger(logging.Named("watcher")),
		)
		if err != nil {
			cancel()
			return nil, err
		}
		w.watcher = fw
	}

	return w, nil
}

// SetProgram sets the message target. The program is usually created after
// the worker, since the model holds the worker.
func (w *BackgroundWorker) SetProgram(p Sender) {
	w.mu.Lock()
	w.program = p
	w.mu.Unlock()
}

// Prime records f as already shown, so an unchanged reload is not sent.
func (w *BackgroundWorker) Prime(f *hierarchy.Forest) {
	hash, err := forestHash(f)
	if err != nil {
		return
	}
	w.mu.Lock()
	w.lastHash = hash
	w.snapshot = &Snapshot{Forest: f, Hash: hash, LoadedAt: time.Now()}
	w.mu.Unlock()
}

// Start begins watching for file changes and processing in the background.
// Start is idempotent - calling it multiple times has no effect.
func (w *BackgroundWorker) Start() error {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return nil
	}
	w.started = true
	w.mu.Unlock()

	if w.watcher != nil {
		if err := w.watcher.Start(); err != nil {
			close(w.done)
			return err
		}
		go w.processLoop()
	} else {
		close(w.done)
	}
	return nil
}

// Stop halts the background worker and cleans up resources.
// Stop is idempotent - calling it multiple times has no effect.
func (w *BackgroundWorker) Stop() {
	w.mu.Lock()
	if w.state == WorkerStopped {
		w.mu.Unlock()
		return
	}
	w.state = WorkerStopped
	wasStarted := w.started
	w.mu.Unlock()

	w.cancel()

	if w.watcher != nil {
		w.watcher.Stop()
	}

	if wasStarted {
		select {
		case <-w.done:
		case <-time.After(2 * time.Second):
			logging.Named("worker").Warn("timed out waiting for the process loop")
		}
	}
}

// Wait blocks until refreshes started with TriggerRefresh have finished.
func (w *BackgroundWorker) Wait() {
	w.wg.Wait()
}

// TriggerRefresh reloads the source. While a load is running the request is
// folded into a single follow-up load.
func (w *BackgroundWorker) TriggerRefresh() {
	w.mu.Lock()
	switch w.state {
	case WorkerStopped:
		w.mu.Unlock()
		return
	case WorkerProcessing:
		w.dirty = true
		w.mu.Unlock()
		return
	}
	w.mu.Unlock()

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.process()
	}()
}

// GetSnapshot returns the current snapshot (may be nil).
func (w *BackgroundWorker) GetSnapshot() *Snapshot {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.snapshot
}

// State returns the current worker state.
func (w *BackgroundWorker) State() WorkerState {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.state
}

// Watching reports whether a file watcher is attached.
func (w *BackgroundWorker) Watching() bool {
	return w.watcher != nil
}

func (w *BackgroundWorker) processLoop() {
	defer close(w.done)

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-w.watcher.Changed():
			w.process()
		}
	}
}

// process loads a new snapshot and re-runs once if a change arrived
// meanwhile.
func (w *BackgroundWorker) process() {
	for {
		w.mu.Lock()
		if w.state != WorkerIdle {
			if w.state == WorkerProcessing {
				w.dirty = true
			}
			w.mu.Unlock()
			return
		}
		w.state = WorkerProcessing
		w.dirty = false
		w.mu.Unlock()

		snapshot := w.buildSnapshot()

		w.mu.Lock()
		if w.state == WorkerStopped {
			w.mu.Unlock()
			return
		}
		if snapshot != nil {
			w.snapshot = snapshot
		}
		wasDirty := w.dirty
		w.state = WorkerIdle
		program := w.program
		w.mu.Unlock()

		if program != nil && snapshot != nil {
			program.Send(SnapshotReadyMsg{Snapshot: snapshot})
		}
		if !wasDirty {
			return
		}
	}
}

// safeCompute executes fn and recovers from any panics.
func (w *BackgroundWorker) safeCompute(phase string, fn func() error) *WorkerError {
	var result *WorkerError
	func() {
		defer func() {
			if r := recover(); r != nil {
				result = &WorkerError{
					Phase: phase,
					Cause: fmt.Errorf("panic: %v\n%s", r, debug.Stack()),
					Time:  time.Now(),
				}
			}
		}()
		if err := fn(); err != nil {
			result = &WorkerError{
				Phase: phase,
				Cause: err,
				Time:  time.Now(),
			}
		}
	}()
	return result
}

// recordError tracks an error and updates error state.
func (w *BackgroundWorker) recordError(err *WorkerError) {
	w.mu.Lock()
	w.lastError = err
	if err != nil {
		w.errorCount++
		err.Retries = w.errorCount
	} else {
		w.errorCount = 0
	}
	w.mu.Unlock()
}

// LastError returns the most recent error (nil if last operation succeeded).
func (w *BackgroundWorker) LastError() *WorkerError {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.lastError
}

func (w *BackgroundWorker) fail(err *WorkerError) {
	logging.Named("worker").Warnw("reload failed", "phase", err.Phase, "error", err.Cause)
	w.recordError(err)
	w.mu.RLock()
	program := w.program
	w.mu.RUnlock()
	if program != nil {
		program.Send(SnapshotErrorMsg{Err: err, Recoverable: true})
	}
}

// buildSnapshot loads the source. It returns nil when loading fails or the
// content is unchanged.
func (w *BackgroundWorker) buildSnapshot() *Snapshot {
	if w.source == nil {
		return nil
	}
	log := logging.Named("worker")
	start := time.Now()

	var forest *hierarchy.Forest
	if werr := w.safeCompute("load", func() error {
		ctx, cancel := context.WithTimeout(w.ctx, w.loadTimeout)
		defer cancel()
		var err error
		forest, err = w.source.Load(ctx)
		return err
	}); werr != nil {
		w.fail(werr)
		return nil
	}

	var hash string
	if werr := w.safeCompute("hash", func() error {
		var err error
		hash, err = forestHash(forest)
		return err
	}); werr != nil {
		w.fail(werr)
		return nil
	}

	w.mu.RLock()
	lastHash := w.lastHash
	w.mu.RUnlock()

	if hash == lastHash && lastHash != "" {
		log.Debugw("content unchanged, skipping", "hash", hashPrefix(hash))
		w.recordError(nil)
		return nil
	}

	w.recordError(nil)
	w.mu.Lock()
	w.lastHash = hash
	w.mu.Unlock()

	log.Infow("snapshot loaded",
		"categories", forest.Len(),
		"duration", time.Since(start),
		"hash", hashPrefix(hash))
	return &Snapshot{Forest: forest, Hash: hash, LoadedAt: time.Now()}
}

// forestHash fingerprints the forest by its flattened rows, so sibling order,
// parents, names and counts all count as changes.
func forestHash(f *hierarchy.Forest) (string, error) {
	data, err := json.Marshal(f.Flatten())
	if err != nil {
		return "", fmt.Errorf("encoding snapshot: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// LastHash returns the content hash from the last successful snapshot build.
func (w *BackgroundWorker) LastHash() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.lastHash
}

// hashPrefix returns up to 16 characters of hash for logging.
func hashPrefix(hash string) string {
	if len(hash) > 16 {
		return hash[:16]
	}
	return hash
}

// ResetHash clears the stored content hash, forcing the next load to be sent
// even if content is unchanged.
func (w *BackgroundWorker) ResetHash() {
	w.mu.Lock()
	w.lastHash = ""
	w.mu.Unlock()
}
