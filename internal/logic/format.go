package logic

import (
	"math"
	"math/bits"
	"strconv"
	"strings"
	"time"
)

// Line framing for frequency reports.
const (
	FrequencyPrefix = "Frequency: "
	FrequencySuffix = " Hz\r\n"
)

// DeciHertz converts a pulse count over window into tenths of a hertz,
// truncating. With the debounce dead time at least window/count apart the
// product never overflows; an absurd input saturates instead of wrapping.
func DeciHertz(count uint32, window time.Duration) uint64 {
	if window <= 0 {
		return 0
	}
	hi, lo := bits.Mul64(uint64(count)*10, uint64(time.Second))
	if hi >= uint64(window) {
		return math.MaxUint64
	}
	q, _ := bits.Div64(hi, lo, uint64(window))
	return q
}

// AppendFrequency appends "Frequency: <int>.<frac> Hz\r\n" to dst.
func AppendFrequency(dst []byte, deciHertz uint64) []byte {
	dst = append(dst, FrequencyPrefix...)
	dst = strconv.AppendUint(dst, deciHertz/10, 10)
	dst = append(dst, '.', byte('0'+deciHertz%10))
	return append(dst, FrequencySuffix...)
}

// FormatFrequency returns the report line for deciHertz.
func FormatFrequency(deciHertz uint64) string {
	return string(AppendFrequency(nil, deciHertz))
}

// ParseFrequency parses a report line, with or without its line ending, and
// returns the frequency in tenths of a hertz.
func ParseFrequency(line string) (uint64, bool) {
	line = strings.TrimRight(line, "\r\n")
	if !strings.HasPrefix(line, FrequencyPrefix) || !strings.HasSuffix(line, " Hz") {
		return 0, false
	}
	num := strings.TrimSuffix(strings.TrimPrefix(line, FrequencyPrefix), " Hz")

	whole, frac, ok := strings.Cut(num, ".")
	if !ok || len(frac) != 1 || frac[0] < '0' || frac[0] > '9' {
		return 0, false
	}
	w, err := strconv.ParseUint(whole, 10, 64)
	if err != nil || w > (math.MaxUint64-9)/10 {
		return 0, false
	}
	return w*10 + uint64(frac[0]-'0'), true
}
