// Package irq models interrupt sources that share state with a main loop on a
// single execution core.
//
// A Line is one interrupt source. It can be masked and unmasked, and each
// firing runs its handler while holding the core lock, so handlers never
// interleave with each other or with a main-loop critical section.
package irq

import (
	"sync"
	"sync/atomic"
)

// Source is an interrupt source that can be masked.
type Source interface {
	Enable()
	Disable()
	Enabled() bool
}

// Line is a dispatchable interrupt source.
type Line struct {
	core    sync.Locker
	handler func()
	enabled atomic.Bool
	fired   atomic.Uint32
	dropped atomic.Uint32
}

// NewLine creates a masked line whose firings run handler under core.
func NewLine(core sync.Locker, handler func()) *Line {
	return &Line{core: core, handler: handler}
}

// Enable unmasks the line.
func (l *Line) Enable() { l.enabled.Store(true) }

// Disable masks the line. Firings while masked are dropped.
func (l *Line) Disable() { l.enabled.Store(false) }

// Enabled reports whether the line is unmasked.
func (l *Line) Enabled() bool { return l.enabled.Load() }

// Trigger delivers one firing. The enable check happens under the core lock,
// so a handler that masks another line takes effect before that line's next
// firing is considered.
func (l *Line) Trigger() {
	l.core.Lock()
	if !l.enabled.Load() {
		l.core.Unlock()
		l.dropped.Add(1)
		return
	}
	l.fired.Add(1)
	l.handler()
	l.core.Unlock()
}

// Counts returns the number of delivered and dropped firings.
func (l *Line) Counts() (fired, dropped uint32) {
	return l.fired.Load(), l.dropped.Load()
}
