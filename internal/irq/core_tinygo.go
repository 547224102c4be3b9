//go:build tinygo

package irq

import "runtime/interrupt"

// Core disables every interrupt on Lock and restores the previous state on
// Unlock. A single saved state is enough on one core: while the main loop
// holds the lock no handler can run, and a handler always releases the lock
// before returning.
type Core struct {
	state interrupt.State
}

// NewCore returns a core.
func NewCore() *Core { return &Core{} }

// Lock disables interrupts.
func (c *Core) Lock() { c.state = interrupt.Disable() }

// Unlock restores the interrupt state saved by Lock.
func (c *Core) Unlock() { interrupt.Restore(c.state) }
