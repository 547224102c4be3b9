package logic

import (
	"sync/atomic"
	"time"
)

// EdgeGate validates input edges.
//
// An edge masks edge detection and arms a countdown. When the countdown
// completes the input is sampled: still asserted means a pulse. Edge
// detection is unmasked again either way, so any edge that arrives while the
// countdown runs is lost. That dead time is what rejects contact bounce.
type EdgeGate struct {
	input  Level
	edges  Switch
	settle Countdown
	delay  time.Duration
	count  *Counter

	rejected atomic.Uint32
}

// NewEdgeGate creates a gate that counts into count. edges is the
// edge-detect source; settle is the debounce countdown, armed for delay.
func NewEdgeGate(input Level, edges Switch, settle Countdown, delay time.Duration, count *Counter) *EdgeGate {
	return &EdgeGate{
		input:  input,
		edges:  edges,
		settle: settle,
		delay:  delay,
		count:  count,
	}
}

// HandleEdge is the edge-detect interrupt handler.
func (g *EdgeGate) HandleEdge() {
	g.edges.Disable()
	g.settle.Start(g.delay)
}

// HandleSettled is the countdown-complete interrupt handler.
func (g *EdgeGate) HandleSettled() {
	if g.input.Asserted() {
		g.count.Inc()
	} else {
		g.rejected.Add(1)
	}
	g.edges.Enable()
}

// Rejected returns how many edges were discarded because the input had
// already returned to idle when sampled.
func (g *EdgeGate) Rejected() uint32 {
	return g.rejected.Load()
}
