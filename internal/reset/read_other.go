//go:build !rp2040

package reset

// Read returns Unknown: the host has no reset registers to consult.
func Read() Cause {
	return Unknown
}
