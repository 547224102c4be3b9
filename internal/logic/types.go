// Package logic contains the pulse measurement pipeline: edge validation,
// pulse counting, window boundaries and report formatting.
// This package has NO hardware dependencies (no GPIO, UART, OS or real timers).
// Inputs, interrupt masks, countdowns and the serial sink are injected through
// the small interfaces below.
package logic

import "time"

// Level reads the monitored input.
type Level interface {
	// Asserted reports whether a pulse is present (active-low line held low).
	Asserted() bool
}

// Switch masks and unmasks an interrupt source.
type Switch interface {
	Enable()
	Disable()
}

// Countdown is a one-shot timer.
type Countdown interface {
	Start(d time.Duration)
}

// Submitter accepts a complete line of output. Submit may block until an
// earlier submission has drained; it never queues.
type Submitter interface {
	Submit(p []byte)
}

// Report is the measurement produced for one closed window.
type Report struct {
	Window    uint32 // SecondsElapsed when the window was drained
	Count     uint32 // validated pulses in the window
	DeciHertz uint64 // frequency in tenths of a hertz, truncated
}

// Hertz returns the frequency as a float.
func (r Report) Hertz() float64 {
	return float64(r.DeciHertz) / 10
}
