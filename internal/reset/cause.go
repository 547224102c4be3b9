// Package reset reports why the chip last came out of reset.
package reset

import "strings"

// Cause is the source of the last reset.
type Cause uint8

const (
	Unknown Cause = iota
	PowerOn
	External
	Watchdog
	Debug
)

var names = [...]string{
	Unknown:  "Unknown",
	PowerOn:  "Power-on",
	External: "External",
	Watchdog: "Watchdog",
	Debug:    "Debug",
}

func (c Cause) String() string {
	if int(c) < len(names) {
		return names[c]
	}
	return names[Unknown]
}

// LinePrefix starts every reset-source line.
const LinePrefix = "Reset source: "

// Line returns the diagnostic line for c, CRLF-terminated.
func Line(c Cause) []byte {
	return AppendLine(nil, c)
}

// AppendLine appends the diagnostic line for c to dst.
func AppendLine(dst []byte, c Cause) []byte {
	dst = append(dst, LinePrefix...)
	dst = append(dst, c.String()...)
	return append(dst, '\r', '\n')
}

// Parse recognises a reset-source line, with or without its line ending.
// An unrecognised cause name parses as Unknown.
func Parse(line string) (Cause, bool) {
	line = strings.TrimRight(line, "\r\n")
	name, ok := strings.CutPrefix(line, LinePrefix)
	if !ok {
		return Unknown, false
	}
	for c, n := range names {
		if n == name {
			return Cause(c), true
		}
	}
	return Unknown, true
}

// Register bits consulted by Decode (RP2040 VREG_AND_CHIP_RESET.CHIP_RESET
// and WATCHDOG.REASON).
const (
	chipHadPOR        = 1 << 8
	chipHadRun        = 1 << 16
	chipHadPSMRestart = 1 << 20

	watchdogTimer = 1 << 0
	watchdogForce = 1 << 1
)

// Decode maps raw reset registers to a Cause. A watchdog reason wins over
// the chip-level flags, which the watchdog does not clear.
func Decode(chipReset, watchdogReason uint32) Cause {
	switch {
	case watchdogReason&(watchdogTimer|watchdogForce) != 0:
		return Watchdog
	case chipReset&chipHadPSMRestart != 0:
		return Debug
	case chipReset&chipHadRun != 0:
		return External
	case chipReset&chipHadPOR != 0:
		return PowerOn
	}
	return Unknown
}
