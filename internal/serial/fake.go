package serial

import "sync"

// FakePort is a test double that records loaded bytes. Interrupts fire
// only when the test calls Fire.
type FakePort struct {
	mu      sync.Mutex
	handler func()
	enabled bool

	// Bytes contains every byte loaded, in order.
	Bytes []byte
	// Fires counts delivered interrupts.
	Fires int
	// Enables counts EnableTx calls.
	Enables int
}

// NewFakePort creates a FakePort with the interrupt masked.
func NewFakePort() *FakePort {
	return &FakePort{}
}

// Load records b.
func (f *FakePort) Load(b byte) {
	f.mu.Lock()
	f.Bytes = append(f.Bytes, b)
	f.mu.Unlock()
}

// EnableTx unmasks the interrupt.
func (f *FakePort) EnableTx(handler func()) {
	f.mu.Lock()
	f.handler = handler
	f.enabled = true
	f.Enables++
	f.mu.Unlock()
}

// DisableTx masks the interrupt.
func (f *FakePort) DisableTx() {
	f.mu.Lock()
	f.enabled = false
	f.mu.Unlock()
}

// Enabled reports whether the interrupt is unmasked.
func (f *FakePort) Enabled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.enabled
}

// Fire delivers one interrupt if unmasked and reports whether it did.
func (f *FakePort) Fire() bool {
	f.mu.Lock()
	h, enabled := f.handler, f.enabled
	if enabled {
		f.Fires++
	}
	f.mu.Unlock()

	if !enabled {
		return false
	}
	h()
	return true
}

// Drain fires until the interrupt is masked and returns the number of
// firings delivered.
func (f *FakePort) Drain() int {
	n := 0
	for f.Fire() {
		n++
	}
	return n
}

// Output returns the bytes loaded so far as a string.
func (f *FakePort) Output() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return string(f.Bytes)
}

// Reset clears recorded output and counters.
func (f *FakePort) Reset() {
	f.mu.Lock()
	f.Bytes = nil
	f.Fires = 0
	f.Enables = 0
	f.mu.Unlock()
}
