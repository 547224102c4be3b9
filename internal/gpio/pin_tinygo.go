//go:build tinygo

package gpio

import "machine"

// PinInput is a pulled-up MCU pin with a falling-edge interrupt.
type PinInput struct {
	pin machine.Pin
}

// NewPinInput configures pin as an input with pull-up.
func NewPinInput(pin machine.Pin) *PinInput {
	pin.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	return &PinInput{pin: pin}
}

func (in *PinInput) Asserted() bool { return !in.pin.Get() }

// Watch installs fn as the pin's falling-edge interrupt handler.
func (in *PinInput) Watch(fn func()) error {
	return in.pin.SetInterrupt(machine.PinFalling, func(machine.Pin) { fn() })
}

func (in *PinInput) Close() error {
	return in.pin.SetInterrupt(0, nil)
}

// PinOutput is an MCU output pin.
type PinOutput struct {
	pin machine.Pin
}

// NewPinOutput configures pin as an output, initially low.
func NewPinOutput(pin machine.Pin) *PinOutput {
	pin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	pin.Low()
	return &PinOutput{pin: pin}
}

func (out *PinOutput) Set(on bool) error {
	out.pin.Set(on)
	return nil
}

func (out *PinOutput) Close() error {
	out.pin.Low()
	return nil
}
