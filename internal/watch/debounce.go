// Package watch implements watch mode: it observes the project's source
// and test directories for changes and re-runs the documentation build
// and/or the test suite after a quiet period.
//
// Filesystem events arrive in bursts (editors write temp files, renames
// produce create+remove pairs), so events are debounced: the rebuild
// callback fires only after no event has been seen for the configured
// quiet window.
package watch

import (
	"sync"
	"time"
)

// Debouncer coalesces a burst of Trigger calls into a single callback
// invocation, fired once the quiet window elapses without a new trigger.
//
// Callback invocations never overlap: a trigger whose quiet window
// elapses while a previous invocation is still running marks a follow-up
// as pending, and exactly one fresh invocation starts once the current
// one finishes. The rebuild pass deletes and renames entries under the
// shared docs root, so two passes must never race on it.
type Debouncer struct {
	window   time.Duration
	callback func()

	mu      sync.Mutex
	timer   *time.Timer
	running bool
	pending bool
}

// NewDebouncer creates a Debouncer that invokes callback after window
// of quiet following one or more Trigger calls.
func NewDebouncer(window time.Duration, callback func()) *Debouncer {
	return &Debouncer{window: window, callback: callback}
}

// Trigger records an event. The callback fires window after the last
// Trigger; intermediate triggers reset the timer.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, d.invoke)
}

// invoke runs the callback, serializing against any invocation already
// in flight. time.AfterFunc fires each expiry on its own goroutine, so
// without this gate a change arriving mid-callback would start a
// concurrent second run.
func (d *Debouncer) invoke() {
	d.mu.Lock()
	if d.running {
		d.pending = true
		d.mu.Unlock()
		return
	}
	d.running = true
	d.mu.Unlock()

	for {
		d.callback()

		d.mu.Lock()
		if d.pending {
			d.pending = false
			d.mu.Unlock()
			continue
		}
		d.running = false
		d.mu.Unlock()
		return
	}
}

// Stop cancels any pending callback. A callback already in flight is
// not interrupted, but its queued follow-up run is discarded.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.pending = false
}
