package timer

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestFakeOneShotFiresOnce(t *testing.T) {
	f := NewFake()
	fired := 0
	o := f.NewOneShot(func() { fired++ })

	o.Start(10 * time.Millisecond)
	f.Advance(9 * time.Millisecond)
	if fired != 0 {
		t.Fatalf("fired early: %d", fired)
	}

	f.Advance(1 * time.Millisecond)
	if fired != 1 {
		t.Fatalf("expected fire at exactly 10ms, got %d", fired)
	}

	f.Advance(time.Second)
	if fired != 1 {
		t.Errorf("one-shot fired again: %d", fired)
	}
	if o.(*FakeOneShot).Armed() {
		t.Error("one-shot should be disarmed after firing")
	}
}

func TestFakeOneShotStop(t *testing.T) {
	f := NewFake()
	fired := 0
	o := f.NewOneShot(func() { fired++ })

	o.Start(5 * time.Millisecond)
	o.Stop()
	f.Advance(10 * time.Millisecond)

	if fired != 0 {
		t.Errorf("stopped one-shot fired %d times", fired)
	}
}

func TestFakePeriodicNeverSkips(t *testing.T) {
	f := NewFake()
	ticks := 0
	p := f.NewPeriodic(time.Second, func() { ticks++ })

	p.Start()
	// One large advance must still deliver every tick.
	f.Advance(5 * time.Second)
	if ticks != 5 {
		t.Errorf("expected 5 ticks, got %d", ticks)
	}

	p.Stop()
	f.Advance(5 * time.Second)
	if ticks != 5 {
		t.Errorf("stopped ticker kept ticking: %d", ticks)
	}
}

func TestFakeTieBreakByCreationOrder(t *testing.T) {
	f := NewFake()
	var order []string
	a := f.NewOneShot(func() { order = append(order, "a") })
	b := f.NewPeriodic(10*time.Millisecond, func() { order = append(order, "b") })

	b.Start()
	a.Start(10 * time.Millisecond)
	f.Advance(10 * time.Millisecond)

	if len(order) != 2 || order[0] != "a" || order[1] != "b" {
		t.Errorf("expected [a b], got %v", order)
	}
}

func TestFakeRearmFromFire(t *testing.T) {
	f := NewFake()
	fired := 0
	var o OneShot
	o = f.NewOneShot(func() {
		fired++
		if fired < 3 {
			o.Start(2 * time.Millisecond)
		}
	})

	o.Start(2 * time.Millisecond)
	f.Advance(10 * time.Millisecond)

	if fired != 3 {
		t.Errorf("expected 3 chained fires, got %d", fired)
	}
	if f.Now() != 10*time.Millisecond {
		t.Errorf("Now: got %v, want 10ms", f.Now())
	}
}

func TestRealOneShot(t *testing.T) {
	done := make(chan struct{})
	o := Real{}.NewOneShot(func() { close(done) })
	o.Start(5 * time.Millisecond)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("one-shot did not fire")
	}
}

func TestRealOneShotRestart(t *testing.T) {
	var fired atomic.Int32
	o := Real{}.NewOneShot(func() { fired.Add(1) })

	o.Start(time.Hour)
	o.Start(5 * time.Millisecond)
	time.Sleep(100 * time.Millisecond)

	if got := fired.Load(); got != 1 {
		t.Errorf("expected 1 fire after restart, got %d", got)
	}
	o.Stop()
}

func TestRealPeriodic(t *testing.T) {
	var ticks atomic.Int32
	p := Real{}.NewPeriodic(10*time.Millisecond, func() { ticks.Add(1) })

	p.Start()
	p.Start() // second start is a no-op
	time.Sleep(105 * time.Millisecond)
	p.Stop()

	got := ticks.Load()
	if got < 5 || got > 11 {
		t.Errorf("expected about 10 ticks, got %d", got)
	}

	after := ticks.Load()
	time.Sleep(30 * time.Millisecond)
	if ticks.Load() != after {
		t.Error("ticker fired after Stop returned")
	}
}
