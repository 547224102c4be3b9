// Package pipeline wires the pulse frequency meter: edge input, debounce
// countdown, window ticker, reporter and serial transmitter, all sharing one
// core.
//
// Interrupt sources and their handlers:
//
//	edge-detect      EdgeGate.HandleEdge       masked while the countdown runs
//	countdown done   EdgeGate.HandleSettled
//	window tick      Window.Tick
//	transmit ready   Transmitter.HandleInterrupt (dispatched by the port)
//
// Poll runs the Reporter from the main loop.
package pipeline

import (
	"fmt"
	"sync"
	"time"

	"github.com/sweeney/pulse-sensor/internal/gpio"
	"github.com/sweeney/pulse-sensor/internal/irq"
	"github.com/sweeney/pulse-sensor/internal/logic"
	"github.com/sweeney/pulse-sensor/internal/reset"
	"github.com/sweeney/pulse-sensor/internal/serial"
	"github.com/sweeney/pulse-sensor/internal/timer"
)

// Build-time parameters.
const (
	SettleTime    = 2 * time.Millisecond
	Window        = time.Second
	BaudRate      = serial.BaudRate
	BlinkInterval = 500 * time.Millisecond
)

// Hardware is everything the pipeline drives.
type Hardware struct {
	// Core is held by every interrupt dispatch and by the Reporter's
	// snapshot. It must be the same lock the Port dispatches under.
	Core      sync.Locker
	Input     gpio.EdgeInput
	Port      serial.Port
	Scheduler timer.Scheduler
	// Waiter is the transmitter backpressure policy. Nil selects
	// serial.SpinWait.
	Waiter serial.Waiter
}

// Stats is a point-in-time view of the pipeline counters.
type Stats struct {
	Windows      uint32 // windows closed since start
	Pending      uint32 // pulses counted in the open window
	Rejected     uint32 // edges that failed validation
	EdgesDropped uint32 // edges arriving while detection was masked
	Sent         uint32 // bytes handed to the port
}

// Pipeline is a wired frequency meter.
type Pipeline struct {
	hw Hardware

	edge   *irq.Line
	settle *irq.Line
	tick   *irq.Line

	countdown timer.OneShot
	ticker    timer.Periodic

	count    logic.Counter
	window   logic.Window
	gate     *logic.EdgeGate
	reporter *logic.Reporter
	tx       *serial.Transmitter

	line [32]byte
}

// New builds the pipeline and routes input edges to it. Edge detection stays
// masked until Start.
func New(hw Hardware) (*Pipeline, error) {
	p := &Pipeline{hw: hw}

	p.edge = irq.NewLine(hw.Core, func() { p.gate.HandleEdge() })
	p.settle = irq.NewLine(hw.Core, func() { p.gate.HandleSettled() })
	p.tick = irq.NewLine(hw.Core, p.window.Tick)
	p.settle.Enable()
	p.tick.Enable()

	p.countdown = hw.Scheduler.NewOneShot(p.settle.Trigger)
	p.ticker = hw.Scheduler.NewPeriodic(Window, p.tick.Trigger)

	p.gate = logic.NewEdgeGate(hw.Input, p.edge, p.countdown, SettleTime, &p.count)
	p.tx = serial.NewTransmitter(hw.Port, hw.Waiter)
	p.reporter = logic.NewReporter(&p.count, &p.window, hw.Core, p.tx, Window)

	if err := hw.Input.Watch(p.edge.Trigger); err != nil {
		return nil, fmt.Errorf("watch pulse input: %w", err)
	}
	return p, nil
}

// Start transmits the reset-source line, then unmasks edge detection and
// starts the window ticker.
func (p *Pipeline) Start(cause reset.Cause) {
	p.tx.Submit(reset.AppendLine(p.line[:0], cause))
	p.edge.Enable()
	p.ticker.Start()
}

// Poll reports the last closed window, if any. It never blocks unless the
// previous line is still being transmitted.
func (p *Pipeline) Poll() (logic.Report, bool) {
	return p.reporter.Step()
}

// Stop masks edge detection and stops both timers. A line already
// submitted keeps draining.
func (p *Pipeline) Stop() {
	p.edge.Disable()
	p.ticker.Stop()
	p.countdown.Stop()
}

// Transmitter returns the serial transmitter, for callers that want to
// share the link.
func (p *Pipeline) Transmitter() *serial.Transmitter { return p.tx }

// Stats returns the current counters.
func (p *Pipeline) Stats() Stats {
	_, dropped := p.edge.Counts()
	return Stats{
		Windows:      p.window.Elapsed(),
		Pending:      p.count.Load(),
		Rejected:     p.gate.Rejected(),
		EdgesDropped: dropped,
		Sent:         p.tx.Sent(),
	}
}
