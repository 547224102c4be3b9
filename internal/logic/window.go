package logic

import "sync/atomic"

// Window marks window boundaries.
//
// Tick is the window-tick interrupt handler and the only writer of both
// fields. The Reporter clears closed; elapsed is never reset.
type Window struct {
	closed  Flag
	elapsed atomic.Uint32
}

// Tick closes the current window.
func (w *Window) Tick() {
	w.closed.Set()
	w.elapsed.Add(1)
}

// Closed reports whether a window has closed and not yet been reported.
func (w *Window) Closed() bool { return w.closed.IsSet() }

// Elapsed returns the number of windows closed since start.
func (w *Window) Elapsed() uint32 { return w.elapsed.Load() }
