//go:build rp2040

package reset

import "device/rp"

// Read returns the cause of the last reset.
func Read() Cause {
	return Decode(rp.VREG_AND_CHIP_RESET.CHIP_RESET.Get(), rp.WATCHDOG.REASON.Get())
}
