//go:build !tinygo

package irq

import "sync"

// Core is the critical-section primitive of the host build. Every line
// dispatch holds it, so holding it from the main loop is equivalent to
// disabling all interrupts.
type Core struct {
	mu sync.Mutex
}

// NewCore returns an unlocked core.
func NewCore() *Core { return &Core{} }

// Lock enters the critical section.
func (c *Core) Lock() { c.mu.Lock() }

// Unlock leaves the critical section.
func (c *Core) Unlock() { c.mu.Unlock() }
