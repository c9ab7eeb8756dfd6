// Package watcher provides file watching with debouncing.
package watcher

import (
	"sync"
	"time"
)

// DefaultDebounceDuration is the default debounce window.
const DefaultDebounceDuration = 200 * time.Millisecond

// Debouncer coalesces rapid events into a single callback invocation.
// When Trigger is called multiple times within the debounce duration,
// only the last callback is executed after the duration elapses.
type Debouncer struct {
	duration time.Duration
	timer    *time.Timer
	mu       sync.Mutex
	seq      uint64
}

// NewDebouncer creates a new Debouncer with the specified duration.
// If duration is 0, DefaultDebounceDuration is used.
func NewDebouncer(duration time.Duration) *Debouncer {
	if duration == 0 {
		duration = DefaultDebounceDuration
	}
	return &Debouncer{duration: duration}
}

// Trigger schedules callback after the debounce duration, replacing any
// callback scheduled earlier.
func (d *Debouncer) Trigger(callback func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seq++
	seq := d.seq

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.duration, func() {
		d.mu.Lock()
		// A timer that already fired can race with Stop; only the newest runs.
		if seq != d.seq {
			d.mu.Unlock()
			return
		}
		d.timer = nil
		d.mu.Unlock()

		callback()
	})
}

// Cancel cancels any pending callback.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.seq++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// Duration returns the debounce duration.
func (d *Debouncer) Duration() time.Duration {
	return d.duration
}
