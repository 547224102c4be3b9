// Package timer provides the one-shot and periodic timers that drive the
// debounce countdown and the window ticker. Each timer calls a fire function
// when it expires; callers route that into an interrupt line.
package timer

import (
	"sync"
	"time"
)

// OneShot fires once, d after the most recent Start.
type OneShot interface {
	// Start arms (or re-arms) the countdown.
	Start(d time.Duration)
	// Stop disarms the countdown if it has not fired.
	Stop()
}

// Periodic fires once per interval between Start and Stop.
type Periodic interface {
	Start()
	Stop()
}

// Scheduler creates timers.
type Scheduler interface {
	NewOneShot(fire func()) OneShot
	NewPeriodic(interval time.Duration, fire func()) Periodic
}

// Real is a Scheduler backed by the runtime's timers.
type Real struct{}

// NewOneShot returns a countdown backed by time.AfterFunc.
func (Real) NewOneShot(fire func()) OneShot {
	return &realOneShot{fire: fire}
}

// NewPeriodic returns a ticker that schedules against absolute deadlines
// (start + n*interval). A late firing is followed by an immediate catch-up
// firing, so ticks are never coalesced or skipped.
func (Real) NewPeriodic(interval time.Duration, fire func()) Periodic {
	return &realPeriodic{interval: interval, fire: fire}
}

type realOneShot struct {
	mu   sync.Mutex
	t    *time.Timer
	fire func()
}

func (o *realOneShot) Start(d time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.t == nil {
		o.t = time.AfterFunc(d, o.fire)
		return
	}
	o.t.Stop()
	o.t.Reset(d)
}

func (o *realOneShot) Stop() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.t != nil {
		o.t.Stop()
	}
}

type realPeriodic struct {
	interval time.Duration
	fire     func()

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

func (p *realPeriodic) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stop != nil {
		return
	}
	p.stop = make(chan struct{})
	p.done = make(chan struct{})
	go p.run(p.stop, p.done)
}

// Stop halts the ticker and waits for its goroutine to exit.
func (p *realPeriodic) Stop() {
	p.mu.Lock()
	stop, done := p.stop, p.done
	p.stop, p.done = nil, nil
	p.mu.Unlock()
	if stop == nil {
		return
	}
	close(stop)
	<-done
}

func (p *realPeriodic) run(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	next := time.Now()
	for {
		next = next.Add(p.interval)
		t := time.NewTimer(time.Until(next))
		select {
		case <-stop:
			t.Stop()
			return
		case <-t.C:
		}
		p.fire()
	}
}
