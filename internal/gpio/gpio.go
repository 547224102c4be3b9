// Package gpio provides the pulse input and the status output with hardware
// abstraction.
// The Linux implementation uses the GPIO character device, the firmware
// implementation uses machine.Pin and the fakes allow testing without hardware.
package gpio

// EdgeInput is an active-low digital input with falling-edge detection.
type EdgeInput interface {
	// Asserted reports the current logical level. The input is pulled up,
	// so raw 0 = asserted.
	Asserted() bool

	// Watch routes every falling edge to fn. fn runs in interrupt context.
	Watch(fn func()) error

	// Close stops edge delivery and releases the line.
	Close() error
}

// Output is a digital output.
type Output interface {
	Set(on bool) error
	Close() error
}

// Line defaults (BCM numbering)
const (
	DefaultChip = "gpiochip0"
	PinPulse    = 17
	PinLED      = 27
)

// Blinker toggles an Output on every call to Toggle.
type Blinker struct {
	out Output
	on  bool
}

// NewBlinker creates a Blinker with the output assumed off.
func NewBlinker(out Output) *Blinker {
	return &Blinker{out: out}
}

// Toggle inverts the output.
func (b *Blinker) Toggle() error {
	b.on = !b.on
	return b.out.Set(b.on)
}

// Off drives the output low.
func (b *Blinker) Off() error {
	b.on = false
	return b.out.Set(false)
}

// On reports the last level written.
func (b *Blinker) On() bool { return b.on }
