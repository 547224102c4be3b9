// Package serial provides the interrupt-driven transmitter and the ports it
// drives.
//
// The Transmitter owns one output buffer. Submit hands it a line and arms the
// port's transmit interrupt; each firing moves one byte into the data
// register, and the firing that moves the last byte masks the interrupt and
// clears the busy flag. Only one submission is ever in flight.
package serial

import (
	"runtime"
	"sync/atomic"
)

// BufferSize is the capacity of the transmit buffer. Longer writes go out
// as consecutive submissions.
const BufferSize = 64

// BaudRate is the fixed line rate (8N1, no flow control).
const BaudRate = 9600

// Port is the transmit side of a UART.
type Port interface {
	// Load places b in the transmit data register.
	Load(b byte)
	// EnableTx unmasks the transmit-ready interrupt. Each firing calls
	// handler in interrupt context.
	EnableTx(handler func())
	// DisableTx masks the transmit-ready interrupt.
	DisableTx()
}

// Waiter is the backpressure policy for Submit: it returns once busy
// reports false. Replacing it changes how a caller waits, not what is sent.
type Waiter interface {
	WaitIdle(busy func() bool)
}

// SpinWait polls until idle, yielding between polls. It never times out:
// a stalled link blocks the caller indefinitely.
type SpinWait struct{}

// WaitIdle spins until busy returns false.
func (SpinWait) WaitIdle(busy func() bool) {
	for busy() {
		runtime.Gosched()
	}
}

// Transmitter sends byte sequences through a Port one interrupt at a time.
//
// buf, cursor and end are written by Submit only while busy is false (the
// interrupt is masked) and by HandleInterrupt only while busy is true.
type Transmitter struct {
	port Port
	wait Waiter

	buf    [BufferSize]byte
	cursor int
	end    int

	busy atomic.Bool
	sent atomic.Uint32
}

// NewTransmitter creates an idle transmitter. A nil wait selects SpinWait.
func NewTransmitter(port Port, wait Waiter) *Transmitter {
	if wait == nil {
		wait = SpinWait{}
	}
	return &Transmitter{port: port, wait: wait}
}

// Submit sends p. If a previous submission is still in flight, Submit
// waits for it to finish; it never queues. p is copied, so the caller may
// reuse it as soon as Submit returns.
//
// An empty p returns immediately: it does not wait, does not arm the
// interrupt and leaves the busy flag as it was.
func (t *Transmitter) Submit(p []byte) {
	for len(p) > 0 {
		t.wait.WaitIdle(t.Busy)

		n := copy(t.buf[:], p)
		t.cursor = 0
		t.end = n
		t.busy.Store(true)
		t.port.EnableTx(t.HandleInterrupt)

		p = p[n:]
	}
}

// Write implements io.Writer on top of Submit. It never fails.
func (t *Transmitter) Write(p []byte) (int, error) {
	t.Submit(p)
	return len(p), nil
}

// HandleInterrupt is the transmit-ready interrupt handler.
func (t *Transmitter) HandleInterrupt() {
	if t.cursor < t.end {
		t.port.Load(t.buf[t.cursor])
		t.cursor++
		t.sent.Add(1)
	}
	if t.cursor >= t.end {
		t.port.DisableTx()
		t.busy.Store(false)
	}
}

// Busy reports whether a submission is in flight.
func (t *Transmitter) Busy() bool { return t.busy.Load() }

// Sent returns the number of bytes loaded into the port since start.
func (t *Transmitter) Sent() uint32 { return t.sent.Load() }
