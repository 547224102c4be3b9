package gpio

import "sync"

// FakeInput is a test double for EdgeInput. Edges are delivered only when
// the test calls Fall.
type FakeInput struct {
	mu       sync.Mutex
	asserted bool
	fn       func()

	// Closed tracks if Close was called
	Closed bool

	// WatchError, if set, will be returned by Watch()
	WatchError error
}

// NewFakeInput creates a deasserted FakeInput.
func NewFakeInput() *FakeInput {
	return &FakeInput{}
}

func (f *FakeInput) Asserted() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.asserted
}

func (f *FakeInput) Watch(fn func()) error {
	if f.WatchError != nil {
		return f.WatchError
	}
	f.mu.Lock()
	f.fn = fn
	f.mu.Unlock()
	return nil
}

// Fall drives the line low and delivers a falling edge.
func (f *FakeInput) Fall() {
	f.mu.Lock()
	f.asserted = true
	fn := f.fn
	f.mu.Unlock()

	if fn != nil {
		fn()
	}
}

// Rise drives the line high. Rising edges are not delivered.
func (f *FakeInput) Rise() {
	f.mu.Lock()
	f.asserted = false
	f.mu.Unlock()
}

// Glitch delivers a falling edge but leaves the line high, as a spike
// shorter than the sampling latency would.
func (f *FakeInput) Glitch() {
	f.mu.Lock()
	f.asserted = false
	fn := f.fn
	f.mu.Unlock()

	if fn != nil {
		fn()
	}
}

func (f *FakeInput) Close() error {
	f.mu.Lock()
	f.fn = nil
	f.Closed = true
	f.mu.Unlock()
	return nil
}

// FakeOutput is a test double that records written levels.
type FakeOutput struct {
	// Levels contains every level written, in order.
	Levels []bool

	// Closed tracks if Close was called
	Closed bool

	// SetError, if set, will be returned by Set()
	SetError error
}

func (f *FakeOutput) Set(on bool) error {
	if f.SetError != nil {
		return f.SetError
	}
	f.Levels = append(f.Levels, on)
	return nil
}

func (f *FakeOutput) Close() error {
	f.Closed = true
	return nil
}
