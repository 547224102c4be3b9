package logic

import (
	"sync"
	"time"
)

// lineSize fits "Frequency: " + 20 digits + ".N Hz\r\n".
const lineSize = 40

// Reporter turns closed windows into output lines. It runs in main-loop
// context only.
type Reporter struct {
	count  *Counter
	window *Window
	cs     sync.Locker
	out    Submitter
	period time.Duration

	buf [lineSize]byte
}

// NewReporter creates a Reporter. cs is the critical section that excludes
// every interrupt handler; period is the window length.
func NewReporter(count *Counter, window *Window, cs sync.Locker, out Submitter, period time.Duration) *Reporter {
	return &Reporter{
		count:  count,
		window: window,
		cs:     cs,
		out:    out,
		period: period,
	}
}

// Step reports the last closed window, if any. It returns false without
// blocking when no window has closed since the previous report.
func (r *Reporter) Step() (Report, bool) {
	if !r.window.Closed() {
		return Report{}, false
	}

	r.cs.Lock()
	n := r.count.Take()
	r.window.closed.Clear()
	w := r.window.Elapsed()
	r.cs.Unlock()

	rep := Report{
		Window:    w,
		Count:     n,
		DeciHertz: DeciHertz(n, r.period),
	}
	r.out.Submit(AppendFrequency(r.buf[:0], rep.DeciHertz))
	return rep, true
}
