//go:build !tinygo

package serial

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync"
	"sync/atomic"

	bugst "go.bug.st/serial"
)

// Open opens a tty at BaudRate, 8N1.
func Open(device string) (bugst.Port, error) {
	port, err := bugst.Open(device, &bugst.Mode{
		BaudRate: BaudRate,
		DataBits: 8,
		Parity:   bugst.NoParity,
		StopBits: bugst.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("open serial %s: %w", device, err)
	}
	return port, nil
}

// HostPort plays a UART's transmit-ready interrupt on the host. Run's
// goroutine is the interrupt: while unmasked it dispatches the handler under
// the core lock, then writes the loaded byte to w and waits for the write to
// complete before the next firing.
type HostPort struct {
	w    io.Writer
	core sync.Locker

	mu      sync.Mutex
	handler func()
	enabled bool
	kick    chan struct{}

	// data register; touched only from Run's goroutine
	data [1]byte
	full bool

	written atomic.Uint64
}

// NewHostPort creates a port writing to w. core is the lock every
// interrupt dispatch holds.
func NewHostPort(w io.Writer, core sync.Locker) *HostPort {
	return &HostPort{
		w:    w,
		core: core,
		kick: make(chan struct{}, 1),
	}
}

// Load places b in the data register. Called from the handler.
func (p *HostPort) Load(b byte) {
	p.data[0] = b
	p.full = true
}

// EnableTx unmasks the interrupt and wakes Run.
func (p *HostPort) EnableTx(handler func()) {
	p.mu.Lock()
	p.handler = handler
	p.enabled = true
	p.mu.Unlock()

	select {
	case p.kick <- struct{}{}:
	default:
	}
}

// DisableTx masks the interrupt.
func (p *HostPort) DisableTx() {
	p.mu.Lock()
	p.enabled = false
	p.mu.Unlock()
}

// Written returns the number of bytes written to the underlying writer.
func (p *HostPort) Written() uint64 { return p.written.Load() }

func (p *HostPort) state() (func(), bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.handler, p.enabled
}

// Run services the interrupt until ctx is done. Write errors are logged and
// the byte is dropped so the transfer still completes.
func (p *HostPort) Run(ctx context.Context) error {
	for {
		if _, enabled := p.state(); !enabled {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-p.kick:
			}
			continue
		}

		p.core.Lock()
		if handler, enabled := p.state(); enabled {
			handler()
		}
		full := p.full
		p.full = false
		p.core.Unlock()

		if !full {
			continue
		}
		if _, err := p.w.Write(p.data[:]); err != nil {
			log.Printf("serial: write error: %v", err)
			continue
		}
		p.written.Add(1)
	}
}
