//go:build rp2040

package timer

import (
	"device/rp"
	"runtime/interrupt"
	"time"
)

// Alarm is a Scheduler on the RP2040 microsecond timer. The countdown uses
// hardware alarm 2 and the ticker alarm 3; alarms 0 and 1 are left to the
// runtime. Each supports a single timer, so NewOneShot and NewPeriodic may
// be called once each.
type Alarm struct{}

const (
	oneShotBit  = 1 << 2
	periodicBit = 1 << 3
)

var (
	countdown alarmOneShot
	ticker    alarmPeriodic
)

func init() {
	countdown.intr = interrupt.New(rp.IRQ_TIMER_IRQ_2, countdown.handle)
	ticker.intr = interrupt.New(rp.IRQ_TIMER_IRQ_3, ticker.handle)
}

func (Alarm) NewOneShot(fire func()) OneShot {
	countdown.fire = fire
	rp.TIMER.INTE.SetBits(oneShotBit)
	countdown.intr.Enable()
	return &countdown
}

func (Alarm) NewPeriodic(interval time.Duration, fire func()) Periodic {
	ticker.fire = fire
	ticker.interval = uint32(interval / time.Microsecond)
	rp.TIMER.INTE.SetBits(periodicBit)
	ticker.intr.Enable()
	return &ticker
}

type alarmOneShot struct {
	intr interrupt.Interrupt
	fire func()
}

// Start arms alarm 2. Writing the alarm register arms it.
func (a *alarmOneShot) Start(d time.Duration) {
	rp.TIMER.ALARM2.Set(rp.TIMER.TIMERAWL.Get() + uint32(d/time.Microsecond))
}

func (a *alarmOneShot) Stop() {
	rp.TIMER.ARMED.Set(oneShotBit)
	rp.TIMER.INTR.Set(oneShotBit)
}

func (a *alarmOneShot) handle(interrupt.Interrupt) {
	rp.TIMER.INTR.Set(oneShotBit)
	a.fire()
}

// alarmPeriodic re-arms alarm 3 against absolute deadlines. The alarm only
// matches the low 32 bits exactly, so a deadline already in the past is
// raised by forcing the interrupt instead of waiting for wraparound.
type alarmPeriodic struct {
	intr     interrupt.Interrupt
	fire     func()
	interval uint32 // µs
	next     uint32
	running  bool
}

func (p *alarmPeriodic) Start() {
	p.running = true
	p.next = rp.TIMER.TIMERAWL.Get() + p.interval
	p.arm()
}

func (p *alarmPeriodic) Stop() {
	p.running = false
	rp.TIMER.ARMED.Set(periodicBit)
	rp.TIMER.INTF.ClearBits(periodicBit)
	rp.TIMER.INTR.Set(periodicBit)
}

func (p *alarmPeriodic) arm() {
	rp.TIMER.ALARM3.Set(p.next)
	if int32(p.next-rp.TIMER.TIMERAWL.Get()) <= 0 {
		rp.TIMER.INTF.SetBits(periodicBit)
	}
}

func (p *alarmPeriodic) handle(interrupt.Interrupt) {
	rp.TIMER.INTF.ClearBits(periodicBit)
	rp.TIMER.INTR.Set(periodicBit)
	if !p.running {
		return
	}
	p.next += p.interval
	p.arm()
	p.fire()
}
