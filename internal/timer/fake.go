package timer

import (
	"sync"
	"time"
)

// Fake is a manually advanced Scheduler for tests. Time only moves in
// Advance, which fires due timers in deadline order. Timers due at the same
// instant fire in creation order.
type Fake struct {
	mu     sync.Mutex
	now    time.Duration
	timers []*fakeTimer
}

// NewFake returns a Fake clock at zero.
func NewFake() *Fake {
	return &Fake{}
}

type fakeTimer struct {
	f        *Fake
	fire     func()
	interval time.Duration // zero for one-shots
	due      time.Duration
	armed    bool
	starts   int
}

// Now returns the elapsed fake time.
func (f *Fake) Now() time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// NewOneShot creates a disarmed countdown.
func (f *Fake) NewOneShot(fire func()) OneShot {
	return &FakeOneShot{f.add(fire, 0)}
}

// NewPeriodic creates a stopped ticker.
func (f *Fake) NewPeriodic(interval time.Duration, fire func()) Periodic {
	return &FakePeriodic{f.add(fire, interval)}
}

func (f *Fake) add(fire func(), interval time.Duration) *fakeTimer {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := &fakeTimer{f: f, fire: fire, interval: interval}
	f.timers = append(f.timers, t)
	return t
}

// Advance moves time forward by d, firing every timer that falls due on the
// way. Fire functions run without the clock's lock held, so they may arm
// timers; a timer armed for a deadline still inside the advance fires too.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	target := f.now + d
	f.mu.Unlock()

	for {
		f.mu.Lock()
		var next *fakeTimer
		for _, t := range f.timers {
			if t.armed && t.due <= target && (next == nil || t.due < next.due) {
				next = t
			}
		}
		if next == nil {
			f.now = target
			f.mu.Unlock()
			return
		}
		f.now = next.due
		if next.interval > 0 {
			next.due += next.interval
		} else {
			next.armed = false
		}
		fire := next.fire
		f.mu.Unlock()

		fire()
	}
}

func (t *fakeTimer) arm(d time.Duration) {
	t.f.mu.Lock()
	t.due = t.f.now + d
	t.armed = true
	t.starts++
	t.f.mu.Unlock()
}

func (t *fakeTimer) disarm() {
	t.f.mu.Lock()
	t.armed = false
	t.f.mu.Unlock()
}

func (t *fakeTimer) isArmed() bool {
	t.f.mu.Lock()
	defer t.f.mu.Unlock()
	return t.armed
}

// FakeOneShot is the countdown returned by Fake.NewOneShot.
type FakeOneShot struct{ t *fakeTimer }

// Start arms the countdown d from the current fake time.
func (o *FakeOneShot) Start(d time.Duration) { o.t.arm(d) }

// Stop disarms the countdown.
func (o *FakeOneShot) Stop() { o.t.disarm() }

// Armed reports whether the countdown is pending.
func (o *FakeOneShot) Armed() bool { return o.t.isArmed() }

// Starts returns how many times Start was called.
func (o *FakeOneShot) Starts() int {
	o.t.f.mu.Lock()
	defer o.t.f.mu.Unlock()
	return o.t.starts
}

// FakePeriodic is the ticker returned by Fake.NewPeriodic.
type FakePeriodic struct{ t *fakeTimer }

// Start schedules the first tick one interval from now.
func (p *FakePeriodic) Start() { p.t.arm(p.t.interval) }

// Stop halts the ticker.
func (p *FakePeriodic) Stop() { p.t.disarm() }

// Running reports whether the ticker is started.
func (p *FakePeriodic) Running() bool { return p.t.isArmed() }
