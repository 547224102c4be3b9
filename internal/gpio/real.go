//go:build linux && !tinygo

package gpio

import (
	"fmt"
	"sync/atomic"

	"github.com/warthog618/go-gpiocdev"
)

// RealInput watches a GPIO line on the Linux GPIO character device.
type RealInput struct {
	chip  *gpiocdev.Chip
	line  *gpiocdev.Line
	watch atomic.Pointer[func()]
}

// NewRealInput requests offset on chip as a pulled-up input with falling
// edge detection.
func NewRealInput(chip string, offset int) (*RealInput, error) {
	c, err := gpiocdev.NewChip(chip)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	in := &RealInput{chip: c}
	line, err := c.RequestLine(offset,
		gpiocdev.AsInput,
		gpiocdev.WithPullUp,
		gpiocdev.WithFallingEdge,
		gpiocdev.WithEventHandler(in.handleEvent))
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("request pulse pin %d: %w", offset, err)
	}
	in.line = line

	return in, nil
}

func (in *RealInput) handleEvent(evt gpiocdev.LineEvent) {
	if evt.Type != gpiocdev.LineEventFallingEdge {
		return
	}
	if fn := in.watch.Load(); fn != nil {
		(*fn)()
	}
}

// Asserted reports whether the line is low. A read error reads as
// deasserted, which the debounce treats as a glitch.
func (in *RealInput) Asserted() bool {
	v, err := in.line.Value()
	if err != nil {
		return false
	}
	return v == 0
}

// Watch routes falling edges to fn.
func (in *RealInput) Watch(fn func()) error {
	in.watch.Store(&fn)
	return nil
}

// Close releases GPIO resources.
// Reconfigures the line to input with pull-down (matching Pi boot defaults)
// before closing.
func (in *RealInput) Close() error {
	in.watch.Store(nil)

	var errs []error
	if in.line != nil {
		if err := in.line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure pulse pin: %w", err))
		}
		if err := in.line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close pulse pin: %w", err))
		}
	}
	if in.chip != nil {
		if err := in.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

// RealOutput drives a GPIO line on the Linux GPIO character device.
type RealOutput struct {
	chip *gpiocdev.Chip
	line *gpiocdev.Line
}

// NewRealOutput requests offset on chip as an output, initially low.
func NewRealOutput(chip string, offset int) (*RealOutput, error) {
	c, err := gpiocdev.NewChip(chip)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	line, err := c.RequestLine(offset, gpiocdev.AsOutput(0))
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("request led pin %d: %w", offset, err)
	}

	return &RealOutput{chip: c, line: line}, nil
}

// Set drives the line high when on.
func (out *RealOutput) Set(on bool) error {
	v := 0
	if on {
		v = 1
	}
	if err := out.line.SetValue(v); err != nil {
		return fmt.Errorf("set led pin: %w", err)
	}
	return nil
}

// Close drives the line low and releases it as an input.
func (out *RealOutput) Close() error {
	var errs []error
	if out.line != nil {
		if err := out.line.SetValue(0); err != nil {
			errs = append(errs, fmt.Errorf("clear led pin: %w", err))
		}
		if err := out.line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure led pin: %w", err))
		}
		if err := out.line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close led pin: %w", err))
		}
	}
	if out.chip != nil {
		if err := out.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
