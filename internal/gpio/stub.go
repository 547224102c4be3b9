//go:build !linux && !tinygo

package gpio

import "errors"

var errUnsupported = errors.New("gpio: not supported on this platform (requires Linux)")

// RealInput is not available on non-Linux platforms.
type RealInput struct{}

// NewRealInput returns an error on non-Linux platforms.
func NewRealInput(chip string, offset int) (*RealInput, error) {
	return nil, errUnsupported
}

func (in *RealInput) Asserted() bool        { return false }
func (in *RealInput) Watch(fn func()) error { return errUnsupported }
func (in *RealInput) Close() error          { return nil }

// RealOutput is not available on non-Linux platforms.
type RealOutput struct{}

// NewRealOutput returns an error on non-Linux platforms.
func NewRealOutput(chip string, offset int) (*RealOutput, error) {
	return nil, errUnsupported
}

func (out *RealOutput) Set(on bool) error { return errUnsupported }
func (out *RealOutput) Close() error      { return nil }
