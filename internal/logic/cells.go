package logic

import "sync/atomic"

// Counter is PulseCount.
//
// Writer: the debounce-complete handler (Inc).
// Reader: the Reporter, which reads and zeroes it inside the critical
// section (Take). Nothing else touches it.
type Counter struct {
	v atomic.Uint32
}

// Inc adds one validated pulse. Wraps at 2^32; see DeciHertz for why that
// bound is never approached.
func (c *Counter) Inc() { c.v.Add(1) }

// Load returns the current count without resetting it.
func (c *Counter) Load() uint32 { return c.v.Load() }

// Take returns the count and resets it to zero.
func (c *Counter) Take() uint32 { return c.v.Swap(0) }

// Flag is a boolean shared between one interrupt writer and the main loop.
type Flag struct {
	v atomic.Bool
}

// Set raises the flag.
func (f *Flag) Set() { f.v.Store(true) }

// Clear lowers the flag.
func (f *Flag) Clear() { f.v.Store(false) }

// IsSet reports whether the flag is raised.
func (f *Flag) IsSet() bool { return f.v.Load() }
